// Package tmdb provides the TMDB v3 client used as both a catalog source and
// the recognition backend.
//
// It fetches list and discover endpoints, searches movies and shows with an
// optional year filter, loads detail payloads (including a show's season
// list), and maps IMDb ids to TMDB ids through /find. Failures are tagged with
// the services sentinels so callers can treat them as soft. Options allow
// tests and the proxy-aware fetcher to supply a custom HTTP client.
package tmdb
