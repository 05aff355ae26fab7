package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trendsub/internal/catalog"
)

// ErrSubscriptionExists is returned by Add when existOk is false and a row
// for the same media already exists.
var ErrSubscriptionExists = errors.New("subscription already exists")

// Subscription is one entry of the local registry. Season 0 means the whole
// show (or a movie).
type Subscription struct {
	ID        string
	Title     string
	Year      string
	Kind      catalog.MediaKind
	TMDBID    int64
	Season    int
	Origin    string
	CreatedAt time.Time
}

const subscriptionColumns = "id, title, year, kind, tmdb_id, season, origin, created_at"

func scanSubscription(scanner interface{ Scan(dest ...any) error }) (*Subscription, error) {
	var (
		sub     Subscription
		kind    string
		created string
	)
	if err := scanner.Scan(&sub.ID, &sub.Title, &sub.Year, &kind, &sub.TMDBID, &sub.Season, &sub.Origin, &created); err != nil {
		return nil, err
	}
	sub.Kind = catalog.MediaKind(kind)
	sub.CreatedAt = parseTime(created)
	return &sub, nil
}

// Exists reports whether a subscription for the media and season is present.
func (s *Store) Exists(ctx context.Context, tmdbID int64, kind catalog.MediaKind, season int) (bool, error) {
	sub, err := s.Find(ctx, tmdbID, kind, season)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// Find returns the subscription for the media and season, or nil.
func (s *Store) Find(ctx context.Context, tmdbID int64, kind catalog.MediaKind, season int) (*Subscription, error) {
	ctx = ensureContext(ctx)
	var sub *Subscription
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			"SELECT "+subscriptionColumns+" FROM subscriptions WHERE tmdb_id = ? AND kind = ? AND season = ?",
			tmdbID, string(kind), season,
		)
		var scanErr error
		sub, scanErr = scanSubscription(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return sub, nil
}

// Add registers sub and returns the stored row. When a row for the same
// media already exists it is returned unchanged if existOk is set; otherwise
// ErrSubscriptionExists is returned.
func (s *Store) Add(ctx context.Context, sub Subscription, existOk bool) (*Subscription, error) {
	sub.Title = strings.TrimSpace(sub.Title)
	if sub.Title == "" {
		return nil, errors.New("subscription title required")
	}
	if sub.TMDBID <= 0 {
		return nil, fmt.Errorf("invalid tmdb id %d", sub.TMDBID)
	}
	if sub.Kind != catalog.KindMovie && sub.Kind != catalog.KindSeries {
		return nil, fmt.Errorf("invalid media kind %q", sub.Kind)
	}
	if sub.Kind == catalog.KindMovie || sub.Season < 0 {
		sub.Season = 0
	}
	sub.ID = uuid.NewString()
	sub.CreatedAt = time.Now().UTC()

	res, err := s.execWithRetry(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tmdb_id, kind, season) DO NOTHING`,
		sub.ID, sub.Title, strings.TrimSpace(sub.Year), string(sub.Kind), sub.TMDBID, sub.Season, sub.Origin, formatTime(sub.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return &sub, nil
	}

	existing, err := s.Find(ctx, sub.TMDBID, sub.Kind, sub.Season)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("subscription for tmdb %d vanished after conflict", sub.TMDBID)
	}
	if !existOk {
		return existing, ErrSubscriptionExists
	}
	return existing, nil
}

// ListSubscriptions returns all subscriptions, newest first.
func (s *Store) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+subscriptionColumns+" FROM subscriptions ORDER BY created_at DESC, title")
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

// RemoveSubscription deletes the subscription with id and reports whether a row was removed.
func (s *Store) RemoveSubscription(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM subscriptions WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	return n > 0, nil
}
