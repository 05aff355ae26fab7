package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	Language     string `toml:"language"`
	ImageBaseURL string `toml:"image_base_url"`
}

// Douban contains request settings for Douban pages and APIs.
type Douban struct {
	UserAgent      string `toml:"user_agent"`
	Referer        string `toml:"referer"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Subscribe contains the pipeline switches that shape a run.
type Subscribe struct {
	// MinRating is the rating gate. Zero or below disables it.
	MinRating float64 `toml:"min_rating"`
	// Proxy routes outbound catalog requests through the global proxy when one is configured.
	Proxy bool `toml:"proxy"`
	// ProxyURL is the global proxy address. Falls back to HTTPS_PROXY.
	ProxyURL        string `toml:"proxy_url"`
	Notify          bool   `toml:"notify"`
	RecognizeSource string `toml:"recognize_source"`
	// ClearHistory wipes run history once at daemon startup.
	ClearHistory    bool    `toml:"clear_history"`
	HistoryLimit    int     `toml:"history_limit"`
	PauseMinSeconds float64 `toml:"pause_min_seconds"`
	PauseMaxSeconds float64 `toml:"pause_max_seconds"`
}

// Schedule controls when the daemon triggers runs.
type Schedule struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
}

// Jellyfin contains configuration for the Jellyfin library check.
type Jellyfin struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Category describes one ranked source. Entries whose key matches a built-in
// category inherit any name, strategy, url, or media type they leave blank.
type Category struct {
	Key       string `toml:"key"`
	Name      string `toml:"name"`
	Enabled   bool   `toml:"enabled"`
	Strategy  string `toml:"strategy"`
	URL       string `toml:"url"`
	MediaType string `toml:"media_type"`
	// Count truncates the fetched list. Zero keeps every item.
	Count int `toml:"count"`
}

// Config encapsulates all configuration values for trendsub.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and the admin API bind address
//   - TMDB: recognition backend and TMDB list categories
//   - Douban: request headers for Douban sources
//   - Subscribe: rating gate, proxy switch, notification switch
//   - Schedule: cron expression and enablement
//   - Jellyfin: library existence check
//   - Notifications: ntfy push settings
//   - Logging: log format and level
//   - Categories: the ranked sources visited by each run
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	Douban        Douban        `toml:"douban"`
	Subscribe     Subscribe     `toml:"subscribe"`
	Schedule      Schedule      `toml:"schedule"`
	Jellyfin      Jellyfin      `toml:"jellyfin"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Categories    []Category    `toml:"categories"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(filepath.Join(xdg.ConfigHome, "trendsub", "config.toml"))
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		builtin := cfg.Categories
		cfg.Categories = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		cfg.Categories = mergeCategories(builtin, cfg.Categories)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("trendsub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is the SQLite file holding history and subscriptions.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "trendsub.db")
}

// ProcessedPath is the append-only processed key log.
func (c *Config) ProcessedPath() string {
	return filepath.Join(c.Paths.DataDir, "processed.log")
}

// SocketPath is the IPC socket used by the CLI.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "trendsub.sock")
}

// LockPath is the single-instance daemon lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "trendsub.lock")
}

// PIDPath records the running daemon's process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "trendsub.pid")
}

// EnabledCategories returns the categories a run should visit, in configured order.
func (c *Config) EnabledCategories() []Category {
	out := make([]Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Enabled {
			out = append(out, cat)
		}
	}
	return out
}

// EffectiveProxy returns the proxy address catalog requests should use, or ""
// when the proxy switch is off or no global proxy is configured.
func (c *Config) EffectiveProxy() string {
	if !c.Subscribe.Proxy {
		return ""
	}
	return strings.TrimSpace(c.Subscribe.ProxyURL)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
