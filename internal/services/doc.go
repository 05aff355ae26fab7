// Package services defines shared utilities consumed by the run pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, category keys, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (fetch, not found, unauthorized) without string matching.
//
// Use these helpers when wiring new catalog sources or backends so
// operational behaviour (error handling, observability) stays uniform across
// the pipeline.
package services
