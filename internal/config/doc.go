// Package config loads, normalizes, and validates trendsub configuration data.
//
// It supplies repository defaults (XDG data and state directories, the
// built-in TMDB and Douban category catalog), reads TOML files, and honours
// environment fallbacks such as TMDB_API_KEY and HTTPS_PROXY. Configured
// [[categories]] entries replace the built-in list; an entry reusing a
// built-in key inherits whatever source fields it leaves blank.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical strategy names, and clear validation errors.
package config
