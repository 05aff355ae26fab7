package catalog

import (
	"context"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"trendsub/internal/logging"
)

// Fetcher retrieves ranked items for a category. It never fails: transport
// errors, bad status codes, and unparsable payloads are logged and yield an
// empty result.
type Fetcher struct {
	getter Getter
	lister Lister
	feeds  *gofeed.Parser
	logger *slog.Logger
}

// NewFetcher wires the page getter and the TMDB lister. lister may be nil
// when no tmdb categories are configured.
func NewFetcher(getter Getter, lister Lister, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		getter: getter,
		lister: lister,
		feeds:  gofeed.NewParser(),
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

// Fetch returns the category's items in source order, truncated to Count when positive.
func (f *Fetcher) Fetch(ctx context.Context, cat Category) []Item {
	logger := logging.WithContext(ctx, f.logger).With(logging.String(logging.FieldCategory, cat.Key))

	items, err := f.fetch(ctx, cat, logger)
	if err != nil {
		logging.WarnWithContext(logger, "category fetch failed", "fetch_failed",
			logging.String("strategy", cat.Strategy),
			logging.String("url", cat.URL),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access, proxy settings, or the source url"),
			logging.String(logging.FieldImpact, "category yields no items this run"),
		)
		return nil
	}
	if cat.Count > 0 && len(items) > cat.Count {
		items = items[:cat.Count]
	}
	logger.Debug("category fetched", logging.Int("items", len(items)), logging.String("strategy", cat.Strategy))
	return items
}

func (f *Fetcher) fetch(ctx context.Context, cat Category, logger *slog.Logger) ([]Item, error) {
	switch cat.Strategy {
	case StrategyTMDB:
		if f.lister == nil {
			logging.WarnWithContext(logger, "tmdb category without tmdb client", "fetch_unconfigured",
				logging.String(logging.FieldErrorHint, "set tmdb.api_key"),
			)
			return nil, nil
		}
		return listTMDB(ctx, f.lister, cat.URL, cat.Kind)
	case StrategyAPI:
		body, err := f.getter.Get(ctx, cat.URL)
		if err != nil {
			return nil, err
		}
		return parseSubjects(body, cat.Kind)
	case StrategyHTML:
		if _, ok := lookupPattern(cat.URL); !ok {
			logging.WarnWithContext(logger, "no page pattern for url", "fetch_unsupported_page",
				logging.String("url", cat.URL),
				logging.String(logging.FieldErrorHint, "html categories support Douban top250 and chart pages"),
			)
			return nil, nil
		}
		body, err := f.getter.Get(ctx, cat.URL)
		if err != nil {
			return nil, err
		}
		items, _ := parseChartPage(cat.URL, body, cat.Kind)
		return items, nil
	case StrategyRSS:
		body, err := f.getter.Get(ctx, cat.URL)
		if err != nil {
			return nil, err
		}
		return parseRankFeed(f.feeds, body, cat.Kind)
	default:
		logging.WarnWithContext(logger, "unknown fetch strategy", "fetch_unknown_strategy",
			logging.String("strategy", cat.Strategy),
		)
		return nil, nil
	}
}
