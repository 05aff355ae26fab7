package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateSubscribe(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateCategories(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/trendsub/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'trendsub config init')", defaultPath)
	}
	if _, err := url.ParseRequestURI(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateSubscribe() error {
	if c.Subscribe.MinRating > 10 {
		return errors.New("subscribe.min_rating must be at most 10")
	}
	if c.Subscribe.ProxyURL != "" {
		if _, err := url.Parse(c.Subscribe.ProxyURL); err != nil {
			return fmt.Errorf("subscribe.proxy_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if !c.Schedule.Enabled {
		return nil
	}
	if c.Schedule.Cron == "" {
		return errors.New("schedule.cron must be set when schedule.enabled is true")
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if !c.Jellyfin.Enabled {
		return nil
	}
	if c.Jellyfin.URL == "" {
		return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
	}
	if c.Jellyfin.APIKey == "" {
		return errors.New("jellyfin.api_key must be set when jellyfin.enabled is true (or set JELLYFIN_API_KEY)")
	}
	return nil
}

func (c *Config) validateCategories() error {
	seen := make(map[string]struct{}, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Key == "" {
			return fmt.Errorf("categories[%d].key must be set", i)
		}
		if _, dup := seen[cat.Key]; dup {
			return fmt.Errorf("categories: duplicate key %q", cat.Key)
		}
		seen[cat.Key] = struct{}{}
		switch cat.Strategy {
		case StrategyAPI, StrategyHTML, StrategyRSS, StrategyTMDB:
		default:
			return fmt.Errorf("categories.%s.strategy must be one of api, html, rss, tmdb (got %q)", cat.Key, cat.Strategy)
		}
		switch cat.MediaType {
		case MediaMovie, MediaTV:
		default:
			return fmt.Errorf("categories.%s.media_type must be movie or tv (got %q)", cat.Key, cat.MediaType)
		}
		if cat.URL == "" {
			return fmt.Errorf("categories.%s.url must be set", cat.Key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}
