package catalog

import "strings"

// MediaKind distinguishes movies from series.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "tv"
)

// ParseMediaKind maps a config media type to a MediaKind. Anything that is not
// a series is treated as a movie.
func ParseMediaKind(value string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "tv", "series", "show":
		return KindSeries
	default:
		return KindMovie
	}
}

// Label returns the Chinese display label used in notifications and history.
func (k MediaKind) Label() string {
	if k == KindSeries {
		return "电视剧"
	}
	return "电影"
}

// Source names the provider that issued an item's external id.
type Source string

const (
	SourceDouban Source = "douban"
	SourceTMDB   Source = "tmdb"
)

// Item is one ranked entry as reported by a remote catalog. Items are built
// fresh on every fetch and never mutated afterwards.
type Item struct {
	ExternalID string
	Title      string
	// Year is empty when the source does not report one.
	Year   string
	Rating float64
	Kind   MediaKind
	URL    string
	Source Source
}

// Category is the read-only view of one configured ranked source.
type Category struct {
	Key      string
	Name     string
	Strategy string
	URL      string
	Kind     MediaKind
	// Count truncates the fetched list when positive.
	Count int
}

// Source reports which provider the category's external ids come from.
func (c Category) Source() Source {
	if c.Strategy == StrategyTMDB {
		return SourceTMDB
	}
	return SourceDouban
}

// Fetch strategy names.
const (
	StrategyAPI  = "api"
	StrategyHTML = "html"
	StrategyRSS  = "rss"
	StrategyTMDB = "tmdb"
)
