package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeDouban()
	c.normalizeSubscribe()
	c.normalizeJellyfin()
	c.normalizeCategories()
	c.normalizeLogging()
	c.Schedule.Cron = strings.TrimSpace(c.Schedule.Cron)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir()
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = envOverride("TRENDSUB_API_TOKEN", c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = envOverride("TMDB_API_KEY", c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	c.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageBaseURL), "/")
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
}

func (c *Config) normalizeDouban() {
	c.Douban.UserAgent = strings.TrimSpace(c.Douban.UserAgent)
	if c.Douban.UserAgent == "" {
		c.Douban.UserAgent = defaultDoubanUserAgent
	}
	c.Douban.Referer = strings.TrimSpace(c.Douban.Referer)
	if c.Douban.Referer == "" {
		c.Douban.Referer = defaultDoubanReferer
	}
	if c.Douban.TimeoutSeconds <= 0 {
		c.Douban.TimeoutSeconds = defaultDoubanTimeout
	}
}

func (c *Config) normalizeSubscribe() {
	c.Subscribe.ProxyURL = strings.TrimSpace(c.Subscribe.ProxyURL)
	if c.Subscribe.ProxyURL == "" {
		c.Subscribe.ProxyURL = strings.TrimSpace(os.Getenv("HTTPS_PROXY"))
	}
	c.Subscribe.RecognizeSource = strings.ToLower(strings.TrimSpace(c.Subscribe.RecognizeSource))
	if c.Subscribe.HistoryLimit <= 0 {
		c.Subscribe.HistoryLimit = defaultHistoryLimit
	}
	if c.Subscribe.PauseMinSeconds < 0 {
		c.Subscribe.PauseMinSeconds = 0
	}
	if c.Subscribe.PauseMaxSeconds < c.Subscribe.PauseMinSeconds {
		c.Subscribe.PauseMaxSeconds = c.Subscribe.PauseMinSeconds
	}
}

func (c *Config) normalizeJellyfin() {
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = envOverride("JELLYFIN_API_KEY", c.Jellyfin.APIKey)
}

func (c *Config) normalizeCategories() {
	for i := range c.Categories {
		cat := &c.Categories[i]
		cat.Key = strings.TrimSpace(cat.Key)
		cat.Name = strings.TrimSpace(cat.Name)
		if cat.Name == "" {
			cat.Name = cat.Key
		}
		cat.Strategy = strings.ToLower(strings.TrimSpace(cat.Strategy))
		cat.URL = strings.TrimSpace(cat.URL)
		cat.MediaType = strings.ToLower(strings.TrimSpace(cat.MediaType))
		if cat.Count < 0 {
			cat.Count = 0
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// envOverride returns the environment value for key when it is set and
// non-blank, otherwise the trimmed current value.
func envOverride(key, current string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(current)
}
