// Package subscribe registers subscriptions for resolved media exactly once.
package subscribe
