package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	defaultTMDBLanguage      = "zh-CN"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL  = "https://image.tmdb.org/t/p/w500"
	defaultDoubanUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultDoubanReferer     = "https://movie.douban.com/"
	defaultDoubanTimeout     = 20
	defaultRecognizeSource   = "themoviedb"
	defaultMinRating         = 7.0
	defaultHistoryLimit      = 500
	defaultPauseMinSeconds   = 1
	defaultPauseMaxSeconds   = 3
	defaultCron              = "0 10 * * *"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultAPIBind           = "127.0.0.1:7488"
	defaultRequestTimeout    = 10
	defaultTMDBCategoryCount = 5
)

// Fetch strategies understood by the catalog package.
const (
	StrategyAPI  = "api"
	StrategyHTML = "html"
	StrategyRSS  = "rss"
	StrategyTMDB = "tmdb"
)

// Media types a category can declare.
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

func defaultDataDir() string {
	return filepath.Join(xdg.DataHome, "trendsub")
}

func defaultLogDir() string {
	return filepath.Join(xdg.StateHome, "trendsub", "logs")
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir(),
			LogDir:  defaultLogDir(),
			APIBind: defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:      defaultTMDBBaseURL,
			Language:     defaultTMDBLanguage,
			ImageBaseURL: defaultTMDBImageBaseURL,
		},
		Douban: Douban{
			UserAgent:      defaultDoubanUserAgent,
			Referer:        defaultDoubanReferer,
			TimeoutSeconds: defaultDoubanTimeout,
		},
		Subscribe: Subscribe{
			MinRating:       defaultMinRating,
			Notify:          true,
			RecognizeSource: defaultRecognizeSource,
			HistoryLimit:    defaultHistoryLimit,
			PauseMinSeconds: defaultPauseMinSeconds,
			PauseMaxSeconds: defaultPauseMaxSeconds,
		},
		Schedule: Schedule{
			Enabled: true,
			Cron:    defaultCron,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Categories: DefaultCategories(),
	}
}

// DefaultCategories returns the built-in category catalog. TMDB lists are
// enabled; Douban ranks and RSSHub feeds are opt-in.
func DefaultCategories() []Category {
	tmdb := func(key, name, path, media string) Category {
		return Category{Key: key, Name: name, Enabled: true, Strategy: StrategyTMDB, URL: path, MediaType: media, Count: defaultTMDBCategoryCount}
	}
	douban := func(key, name, strategy, url, media string) Category {
		return Category{Key: key, Name: name, Strategy: strategy, URL: url, MediaType: media}
	}
	return []Category{
		tmdb("movie_popular", "热门电影", "movie/popular", MediaMovie),
		tmdb("movie_top_rated", "高分电影", "movie/top_rated", MediaMovie),
		tmdb("movie_upcoming", "即将上映电影", "movie/upcoming", MediaMovie),
		tmdb("movie_now_playing", "正在上映电影", "movie/now_playing", MediaMovie),
		tmdb("tv_popular", "热门电视剧", "tv/popular", MediaTV),
		tmdb("tv_top_rated", "高分电视剧", "tv/top_rated", MediaTV),
		tmdb("tv_on_the_air", "正在播出电视剧", "tv/on_the_air", MediaTV),
		tmdb("tv_airing_today", "今日播出电视剧", "tv/airing_today", MediaTV),
		tmdb("tv_animation", "热门动画", "discover/tv?with_genres=16&sort_by=popularity.desc", MediaTV),
		douban("movie_hot", "热门电影", StrategyAPI, "https://movie.douban.com/j/search_subjects?type=movie&tag=%E7%83%AD%E9%97%A8&sort=recommend&page_limit=20&page_start=0", MediaMovie),
		douban("tv_hot", "热门电视剧", StrategyAPI, "https://movie.douban.com/j/search_subjects?type=tv&tag=%E7%83%AD%E9%97%A8&sort=recommend&page_limit=20&page_start=0", MediaTV),
		douban("show_hot", "热门综艺", StrategyAPI, "https://movie.douban.com/j/search_subjects?type=tv&tag=%E7%BB%BC%E8%89%BA&sort=recommend&page_limit=20&page_start=0", MediaTV),
		douban("movie_top250", "电影Top250", StrategyHTML, "https://movie.douban.com/top250", MediaMovie),
		douban("movie_weekly", "一周口碑电影榜", StrategyHTML, "https://movie.douban.com/chart", MediaMovie),
		douban("movie_weekly_rss", "一周口碑电影榜 (RSSHub)", StrategyRSS, "https://rsshub.app/douban/movie/weekly", MediaMovie),
	}
}

// mergeCategories overlays configured entries on the built-in catalog. When
// the file declares no categories the built-ins are used as-is.
func mergeCategories(builtin, configured []Category) []Category {
	if len(configured) == 0 {
		return builtin
	}
	index := make(map[string]Category, len(builtin))
	for _, cat := range builtin {
		index[cat.Key] = cat
	}
	out := make([]Category, 0, len(configured))
	for _, cat := range configured {
		if base, ok := index[cat.Key]; ok {
			if cat.Name == "" {
				cat.Name = base.Name
			}
			if cat.Strategy == "" {
				cat.Strategy = base.Strategy
			}
			if cat.URL == "" {
				cat.URL = base.URL
			}
			if cat.MediaType == "" {
				cat.MediaType = base.MediaType
			}
		}
		out = append(out, cat)
	}
	return out
}
