package recognize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"trendsub/internal/catalog"
	"trendsub/internal/logging"
	"trendsub/internal/services"
	"trendsub/internal/tmdb"
)

// SourceTMDB is the recognize_source value that enables cross-reference lookups.
const SourceTMDB = "themoviedb"

// Media is the canonical identity an item resolves to.
type Media struct {
	ID        int64
	Title     string
	Year      string
	Kind      catalog.MediaKind
	Season    int
	PosterURL string
	Overview  string
	Rating    float64
}

// CanonicalID returns the TMDB id as a string.
func (m Media) CanonicalID() string {
	return strconv.FormatInt(m.ID, 10)
}

// TitleYear renders "Title (Year)" or just the title when the year is unknown.
func (m Media) TitleYear() string {
	if m.Year == "" {
		return m.Title
	}
	return fmt.Sprintf("%s (%s)", m.Title, m.Year)
}

// Backend is the subset of the TMDB client used for recognition.
type Backend interface {
	SearchMovie(ctx context.Context, query string, opts tmdb.SearchOptions) (*tmdb.Response, error)
	SearchTV(ctx context.Context, query string, opts tmdb.SearchOptions) (*tmdb.Response, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*tmdb.Details, error)
	GetTVDetails(ctx context.Context, showID int64) (*tmdb.Details, error)
	FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResponse, error)
}

// CrossReference maps a Douban subject id to an IMDb id.
type CrossReference interface {
	IMDbID(ctx context.Context, doubanID string) (string, error)
}

// Options tune recognition.
type Options struct {
	// Source is the active recognition source; only "themoviedb" enables
	// Douban cross-reference lookups.
	Source       string
	ImageBaseURL string
}

// Resolver maps catalog items to canonical TMDB media.
type Resolver struct {
	backend Backend
	xref    CrossReference
	opts    Options
	logger  *slog.Logger
}

// NewResolver builds a resolver. xref may be nil, which disables the Douban
// cross-reference step.
func NewResolver(backend Backend, xref CrossReference, opts Options, logger *slog.Logger) *Resolver {
	opts.ImageBaseURL = strings.TrimRight(opts.ImageBaseURL, "/")
	return &Resolver{
		backend: backend,
		xref:    xref,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "recognize"),
	}
}

// Resolve returns the canonical media for item or nil when neither the
// cross-reference lookup nor the title search finds it. It never panics.
func (r *Resolver) Resolve(ctx context.Context, item catalog.Item, cat catalog.Category) (media *Media) {
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String(logging.FieldCategory, cat.Key),
		logging.String("title", item.Title),
		logging.String("external_id", item.ExternalID),
	)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("recognition panicked", logging.Any("panic", rec), logging.String(logging.FieldEventType, "recognize_panic"))
			media = nil
		}
	}()
	if r.backend == nil {
		return nil
	}

	cleanTitle, season := SplitSeason(item.Title)
	kind := item.Kind
	if kind == "" {
		kind = cat.Kind
	}

	if found := r.lookupByReference(ctx, item, kind, logger); found != nil {
		found.Season = seasonFor(found.Kind, season)
		logger.Debug("resolved by reference", logging.Int64("tmdb_id", found.ID))
		return found
	}

	found, err := r.RecognizeMedia(ctx, cleanTitle, item.Year, kind)
	if err != nil {
		logger.Debug("title search failed", logging.Error(err))
		return nil
	}
	if found == nil {
		return nil
	}
	found.Season = seasonFor(found.Kind, season)
	logger.Debug("resolved by title", logging.Int64("tmdb_id", found.ID))
	return found
}

// lookupByReference is step one. Errors and panics only mean the step failed.
func (r *Resolver) lookupByReference(ctx context.Context, item catalog.Item, kind catalog.MediaKind, logger *slog.Logger) (media *Media) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Debug("reference lookup panicked", logging.Any("panic", rec))
			media = nil
		}
	}()
	id, err := r.ReverseLookup(ctx, item, kind)
	if err != nil {
		logger.Debug("reference lookup failed", logging.Error(err))
		return nil
	}
	if id <= 0 {
		return nil
	}
	details, err := r.details(ctx, id, kind)
	if err != nil {
		logger.Debug("reference details failed", logging.Int64("tmdb_id", id), logging.Error(err))
		return nil
	}
	return r.fromDetails(details, kind)
}

// ReverseLookup returns the native TMDB id for item's external id, or 0 when
// the item carries no usable cross-reference.
func (r *Resolver) ReverseLookup(ctx context.Context, item catalog.Item, kind catalog.MediaKind) (int64, error) {
	externalID := strings.TrimSpace(item.ExternalID)
	if externalID == "" {
		return 0, nil
	}
	switch item.Source {
	case catalog.SourceTMDB:
		id, err := strconv.ParseInt(externalID, 10, 64)
		if err != nil {
			return 0, services.Wrap(services.ErrValidation, "recognize", "reverse lookup", fmt.Sprintf("tmdb id %q is not numeric", externalID), err)
		}
		return id, nil
	case catalog.SourceDouban:
		if r.opts.Source != SourceTMDB || r.xref == nil {
			return 0, nil
		}
		imdbID, err := r.xref.IMDbID(ctx, externalID)
		if err != nil {
			return 0, err
		}
		found, err := r.backend.FindByIMDbID(ctx, imdbID)
		if err != nil {
			return 0, err
		}
		results := found.MovieResults
		if kind == catalog.KindSeries {
			results = found.TVResults
		}
		if len(results) == 0 {
			return 0, services.Wrap(services.ErrNotFound, "recognize", "reverse lookup", fmt.Sprintf("no %s result for %s", kind, imdbID), nil)
		}
		return results[0].ID, nil
	}
	return 0, nil
}

// RecognizeMedia searches TMDB by title, year and kind. An exact normalized
// title match wins; otherwise the first result in TMDB order is taken. When a
// year-filtered search returns nothing the search is repeated without it.
func (r *Resolver) RecognizeMedia(ctx context.Context, title, year string, kind catalog.MediaKind) (*Media, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("empty title")
	}
	opts := tmdb.SearchOptions{}
	if y, err := strconv.Atoi(strings.TrimSpace(year)); err == nil && y > 0 {
		opts.Year = y
	}

	resp, err := r.search(ctx, title, kind, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 && opts.Year > 0 {
		if resp, err = r.search(ctx, title, kind, tmdb.SearchOptions{}); err != nil {
			return nil, err
		}
	}
	best := selectBestResult(title, resp)
	if best == nil {
		return nil, nil
	}
	return r.fromResult(*best, kind), nil
}

func (r *Resolver) search(ctx context.Context, title string, kind catalog.MediaKind, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	var (
		resp *tmdb.Response
		err  error
	)
	if kind == catalog.KindSeries {
		resp, err = r.backend.SearchTV(ctx, title, opts)
	} else {
		resp, err = r.backend.SearchMovie(ctx, title, opts)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = &tmdb.Response{}
	}
	return resp, nil
}

func (r *Resolver) details(ctx context.Context, id int64, kind catalog.MediaKind) (*tmdb.Details, error) {
	if kind == catalog.KindSeries {
		return r.backend.GetTVDetails(ctx, id)
	}
	return r.backend.GetMovieDetails(ctx, id)
}

func selectBestResult(query string, resp *tmdb.Response) *tmdb.Result {
	if resp == nil || len(resp.Results) == 0 {
		return nil
	}
	want := normalizeForComparison(query)
	for idx := range resp.Results {
		if want != "" && normalizeForComparison(resp.Results[idx].DisplayTitle()) == want {
			return &resp.Results[idx]
		}
	}
	return &resp.Results[0]
}

func (r *Resolver) fromResult(res tmdb.Result, kind catalog.MediaKind) *Media {
	return &Media{
		ID:        res.ID,
		Title:     res.DisplayTitle(),
		Year:      res.Year(),
		Kind:      kind,
		PosterURL: r.posterURL(res.PosterPath),
		Overview:  res.Overview,
		Rating:    res.VoteAverage,
	}
}

func (r *Resolver) fromDetails(details *tmdb.Details, kind catalog.MediaKind) *Media {
	if details == nil || details.ID <= 0 {
		return nil
	}
	return r.fromResult(details.Result, kind)
}

func (r *Resolver) posterURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || r.opts.ImageBaseURL == "" {
		return ""
	}
	return r.opts.ImageBaseURL + "/" + strings.TrimLeft(path, "/")
}

func seasonFor(kind catalog.MediaKind, season int) int {
	if kind != catalog.KindSeries {
		return 0
	}
	return season
}
