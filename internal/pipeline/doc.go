// Package pipeline runs one discovery-and-subscribe pass across the
// configured categories.
//
// For every category the Runner fetches ranked items, drops those below the
// rating threshold, skips keys already processed, resolves the rest to TMDB
// media, and registers subscriptions. Added items are recorded in the
// processed set and the history log as they happen, so a cancelled run keeps
// its progress. A single aggregated notification is sent at the end of a run
// that added anything.
//
// Processing is strictly sequential. Runs on one Runner are serialized.
package pipeline
