// Package notifications delivers run notifications through ntfy.
//
// The topic comes from [notifications] in config.toml; without one the
// service degrades to a no-op. Each Event maps to a fixed set of ntfy tags
// and a priority so callers only supply the title and body.
package notifications
