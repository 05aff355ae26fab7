// Package logging assembles structured slog loggers and formatting helpers used
// across trendsub.
//
// It owns the console/JSON handlers, level parsing, and the context helpers
// that tag log lines with the run id, category, and trigger of the pipeline
// pass that produced them. WarnWithContext and ErrorWithContext enforce the
// event_type / error_hint / impact convention for anything an operator may
// need to act on. NewNop supplies a silent logger for tests and wiring code.
package logging
