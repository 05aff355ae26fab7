package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"trendsub/internal/config"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	t.Setenv("HTTPS_PROXY", "")
	t.Setenv("TRENDSUB_API_TOKEN", "")
	t.Setenv("JELLYFIN_API_KEY", "")
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return home
}

func TestLoadDefaultConfigUsesEnvTMDBKeyAndXDGPaths(t *testing.T) {
	home := isolateHome(t)
	t.Setenv("TMDB_API_KEY", "test-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(home, ".config", "trendsub", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".local", "share", "trendsub"); cfg.Paths.DataDir != want {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, want)
	}
	if want := filepath.Join(home, ".local", "state", "trendsub", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Jellyfin.Enabled {
		t.Fatal("expected Jellyfin disabled by default")
	}
	if cfg.Subscribe.MinRating != 7 {
		t.Fatalf("unexpected default min rating: %v", cfg.Subscribe.MinRating)
	}
	if cfg.Subscribe.HistoryLimit != 500 {
		t.Fatalf("unexpected history limit: %d", cfg.Subscribe.HistoryLimit)
	}
	if cfg.EffectiveProxy() != "" {
		t.Fatalf("expected no proxy by default, got %q", cfg.EffectiveProxy())
	}
	if len(cfg.Categories) != len(config.DefaultCategories()) {
		t.Fatalf("expected built-in categories, got %d", len(cfg.Categories))
	}
	enabled := cfg.EnabledCategories()
	if len(enabled) != 9 {
		t.Fatalf("expected the nine TMDB lists enabled by default, got %d", len(enabled))
	}
	for _, cat := range enabled {
		if cat.Strategy != config.StrategyTMDB {
			t.Fatalf("unexpected enabled default %q with strategy %q", cat.Key, cat.Strategy)
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "trendsub.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadCustomConfigMergesCategories(t *testing.T) {
	isolateHome(t)
	t.Setenv("TMDB_API_KEY", "")
	configPath := filepath.Join(t.TempDir(), "trendsub.toml")
	contents := `
[tmdb]
api_key = "abc123"
base_url = "https://example.com/tmdb/"

[subscribe]
min_rating = 0
proxy = true
proxy_url = "http://127.0.0.1:7890"

[schedule]
cron = "30 6 * * *"

[[categories]]
key = "movie_top250"
enabled = true
count = 10

[[categories]]
key = "custom_feed"
name = "Custom"
enabled = true
strategy = "RSS"
url = "https://rsshub.example/douban/list/movie_real_time_hotest"
media_type = "Movie"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.TMDB.BaseURL)
	}
	if cfg.Subscribe.MinRating != 0 {
		t.Fatalf("expected min rating override, got %v", cfg.Subscribe.MinRating)
	}
	if cfg.EffectiveProxy() != "http://127.0.0.1:7890" {
		t.Fatalf("unexpected effective proxy %q", cfg.EffectiveProxy())
	}
	if len(cfg.Categories) != 2 {
		t.Fatalf("expected configured categories to replace built-ins, got %d", len(cfg.Categories))
	}
	top := cfg.Categories[0]
	if top.Strategy != config.StrategyHTML || top.URL != "https://movie.douban.com/top250" || top.Name != "电影Top250" {
		t.Fatalf("expected built-in fields inherited, got %+v", top)
	}
	if top.Count != 10 || !top.Enabled {
		t.Fatalf("expected overrides applied, got %+v", top)
	}
	custom := cfg.Categories[1]
	if custom.Strategy != config.StrategyRSS || custom.MediaType != config.MediaMovie {
		t.Fatalf("expected strategy and media type normalized, got %+v", custom)
	}
}

func TestEnvVarOverridesConfigFileForSecrets(t *testing.T) {
	isolateHome(t)
	configPath := filepath.Join(t.TempDir(), "trendsub.toml")

	type payload struct {
		Paths struct {
			APIToken string `toml:"api_token"`
		} `toml:"paths"`
		TMDB struct {
			APIKey string `toml:"api_key"`
		} `toml:"tmdb"`
		Jellyfin struct {
			APIKey string `toml:"api_key"`
		} `toml:"jellyfin"`
	}
	custom := payload{}
	custom.Paths.APIToken = "file-token"
	custom.TMDB.APIKey = "file-tmdb"
	custom.Jellyfin.APIKey = "file-jellyfin"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("TMDB_API_KEY", "env-tmdb")
	t.Setenv("JELLYFIN_API_KEY", "env-jellyfin")
	t.Setenv("TRENDSUB_API_TOKEN", "env-token")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "env-tmdb" {
		t.Errorf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Jellyfin.APIKey != "env-jellyfin" {
		t.Errorf("expected Jellyfin key from env, got %q", cfg.Jellyfin.APIKey)
	}
	if cfg.Paths.APIToken != "env-token" {
		t.Errorf("expected API token from env, got %q", cfg.Paths.APIToken)
	}
}

func TestProxyRequiresSwitchAndAddress(t *testing.T) {
	isolateHome(t)
	t.Setenv("TMDB_API_KEY", "key")
	t.Setenv("HTTPS_PROXY", "http://proxy.local:3128")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Subscribe.ProxyURL != "http://proxy.local:3128" {
		t.Fatalf("expected HTTPS_PROXY fallback, got %q", cfg.Subscribe.ProxyURL)
	}
	if cfg.EffectiveProxy() != "" {
		t.Fatal("expected proxy unused while the switch is off")
	}
	cfg.Subscribe.Proxy = true
	if cfg.EffectiveProxy() != "http://proxy.local:3128" {
		t.Fatalf("expected proxy once switched on, got %q", cfg.EffectiveProxy())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_tmdb_api_key_here") {
		t.Fatalf("sample config missing placeholder TMDB key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "trendsub") {
		t.Fatalf("expected data dir to contain trendsub, got %q", cfg.Paths.DataDir)
	}
	if len(cfg.Categories) == 0 {
		t.Fatal("expected sample to declare categories")
	}
}

func TestSampleLoadsAndValidates(t *testing.T) {
	isolateHome(t)
	t.Setenv("TMDB_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	for _, cat := range cfg.Categories {
		if cat.Strategy == "" || cat.URL == "" {
			t.Fatalf("sample category %q did not inherit built-in source: %+v", cat.Key, cat)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing tmdb key", func(c *config.Config) { c.TMDB.APIKey = "" }},
		{"bad cron", func(c *config.Config) { c.Schedule.Cron = "every day" }},
		{"empty cron while enabled", func(c *config.Config) { c.Schedule.Cron = "" }},
		{"rating above ten", func(c *config.Config) { c.Subscribe.MinRating = 11 }},
		{"jellyfin without url", func(c *config.Config) {
			c.Jellyfin.Enabled = true
			c.Jellyfin.APIKey = "k"
		}},
		{"jellyfin without key", func(c *config.Config) {
			c.Jellyfin.Enabled = true
			c.Jellyfin.URL = "http://jf"
		}},
		{"unknown strategy", func(c *config.Config) { c.Categories[0].Strategy = "ftp" }},
		{"unknown media type", func(c *config.Config) { c.Categories[0].MediaType = "anime" }},
		{"duplicate key", func(c *config.Config) { c.Categories[1].Key = c.Categories[0].Key }},
		{"missing url", func(c *config.Config) { c.Categories[0].URL = "" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.TMDB.APIKey = "key"
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	cfg.TMDB.APIKey = "key"
	cfg.Schedule.Enabled = false
	cfg.Schedule.Cron = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled schedule to skip cron validation: %v", err)
	}
}
