// Package store keeps trendsub's durable state in a single SQLite database.
//
// Two tables matter: blobs, a namespace keyed value table that backs the
// history log, and subscriptions, the local registry the subscription
// registrar checks and appends to. Subscriptions are unique per TMDB id,
// media kind and season so repeated adds collapse onto the existing row.
//
// Schema changes bump schemaVersion in schema.go; databases created by an
// older build are rejected with ErrSchemaMismatch.
package store
