// Package logs reads the daemon's log files for the `trendsub logs` command.
//
// Last returns the trailing lines of a file with bounded memory, Follow polls
// from an offset and emits appended lines until its context ends, and
// MatchLevel filters slog text or JSON records by minimum level. A file that
// shrinks below the follow offset is treated as replaced and read from the
// start, which is what happens when the daemon restarts and repoints
// trendsub.log at a fresh file.
package logs
