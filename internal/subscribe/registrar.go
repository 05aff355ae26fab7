package subscribe

import (
	"context"
	"fmt"
	"log/slog"

	"trendsub/internal/catalog"
	"trendsub/internal/logging"
	"trendsub/internal/recognize"
	"trendsub/internal/store"
)

// Skip reasons reported by RegisterIfAbsent.
const (
	ReasonInLibrary  = "already in library"
	ReasonSubscribed = "already subscribed"
)

// Origin labels attached to subscriptions created by runs.
const (
	OriginDouban = "豆瓣榜单"
	OriginTMDB   = "TMDB趋势订阅"
)

// OriginFor returns the origin label for items from source.
func OriginFor(source catalog.Source) string {
	if source == catalog.SourceTMDB {
		return OriginTMDB
	}
	return OriginDouban
}

// Library reports whether media is already in the managed library.
type Library interface {
	Exists(ctx context.Context, tmdbID int64, series bool, season int) (bool, error)
}

// Registry is the subscription backend.
type Registry interface {
	Exists(ctx context.Context, tmdbID int64, kind catalog.MediaKind, season int) (bool, error)
	Add(ctx context.Context, sub store.Subscription, existOk bool) (*store.Subscription, error)
}

// Outcome describes what RegisterIfAbsent did. Reason is set whenever Added
// is false.
type Outcome struct {
	Added          bool
	SubscriptionID string
	Reason         string
}

// AlreadySubscribed reports whether the registry already held the media.
func (o Outcome) AlreadySubscribed() bool {
	return !o.Added && o.Reason == ReasonSubscribed
}

// Registrar creates subscriptions for media that is neither in the library
// nor already subscribed.
type Registrar struct {
	library  Library
	registry Registry
	logger   *slog.Logger
}

// NewRegistrar wires the library and registry backends.
func NewRegistrar(library Library, registry Registry, logger *slog.Logger) *Registrar {
	return &Registrar{
		library:  library,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "subscribe"),
	}
}

// RegisterIfAbsent runs the library check, then the subscription check, and
// adds a subscription tagged with origin when both are negative. Backend
// failures come back as Added=false with the backend's message.
func (r *Registrar) RegisterIfAbsent(ctx context.Context, media recognize.Media, season int, origin string) (out Outcome) {
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String("title", media.TitleYear()),
		logging.Int64("tmdb_id", media.ID),
		logging.Int("season", season),
	)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("registrar panicked", logging.Any("panic", rec), logging.String(logging.FieldEventType, "subscribe_panic"))
			out = Outcome{Reason: fmt.Sprintf("registrar panic: %v", rec)}
		}
	}()

	series := media.Kind == catalog.KindSeries
	if !series {
		season = 0
	}

	if r.library != nil {
		inLibrary, err := r.library.Exists(ctx, media.ID, series, season)
		if err != nil {
			return Outcome{Reason: fmt.Sprintf("library check failed: %v", err)}
		}
		if inLibrary {
			logger.Info("already in library, skipping")
			return Outcome{Reason: ReasonInLibrary}
		}
	}

	subscribed, err := r.registry.Exists(ctx, media.ID, media.Kind, season)
	if err != nil {
		return Outcome{Reason: fmt.Sprintf("subscription check failed: %v", err)}
	}
	if subscribed {
		logger.Info("already subscribed, skipping")
		return Outcome{Reason: ReasonSubscribed}
	}

	sub, err := r.registry.Add(ctx, store.Subscription{
		Title:  media.Title,
		Year:   media.Year,
		Kind:   media.Kind,
		TMDBID: media.ID,
		Season: season,
		Origin: origin,
	}, true)
	if err != nil {
		return Outcome{Reason: err.Error()}
	}
	logger.Info("subscription added", logging.String("subscription_id", sub.ID), logging.String("origin", origin))
	return Outcome{Added: true, SubscriptionID: sub.ID}
}
