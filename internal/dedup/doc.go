// Package dedup persists the set of processed item keys as an append-only
// text file, one key per line.
package dedup
