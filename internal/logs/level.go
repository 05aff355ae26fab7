package logs

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// ParseLevel maps a level name to slog.Level. Empty means debug so nothing
// is filtered.
func ParseLevel(name string) (slog.Level, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return level, nil
}

// LineLevel extracts the level of a console or JSON formatted record.
// Lines without a recognizable level report ok=false.
func LineLevel(line string) (slog.Level, bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var rec struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal([]byte(trimmed), &rec); err != nil || rec.Level == "" {
			return 0, false
		}
		level, err := ParseLevel(rec.Level)
		return level, err == nil
	}
	// Console records start with "<RFC3339 timestamp> <LEVEL>".
	fields := strings.SplitN(trimmed, " ", 3)
	if len(fields) < 2 {
		return 0, false
	}
	switch fields[1] {
	case "DEBUG", "INFO", "WARN", "ERROR":
		level, err := ParseLevel(fields[1])
		return level, err == nil
	}
	return 0, false
}

// MatchLevel reports whether line should be shown at minLevel. Continuation lines
// without a level are always shown so multi-line records stay intact.
func MatchLevel(line string, minLevel slog.Level) bool {
	level, ok := LineLevel(line)
	if !ok {
		return true
	}
	return level >= minLevel
}
