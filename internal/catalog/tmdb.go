package catalog

import (
	"context"
	"fmt"
	"strconv"

	"trendsub/internal/tmdb"
)

// Lister fetches a TMDB list endpoint.
type Lister interface {
	List(ctx context.Context, path string) (*tmdb.Response, error)
}

func listTMDB(ctx context.Context, lister Lister, path string, kind MediaKind) ([]Item, error) {
	resp, err := lister.List(ctx, path)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(resp.Results))
	for _, r := range resp.Results {
		title := r.DisplayTitle()
		if r.ID <= 0 || title == "" {
			continue
		}
		id := strconv.FormatInt(r.ID, 10)
		items = append(items, Item{
			ExternalID: id,
			Title:      title,
			Year:       r.Year(),
			Rating:     r.VoteAverage,
			Kind:       kind,
			URL:        fmt.Sprintf("https://www.themoviedb.org/%s/%s", kind, id),
			Source:     SourceTMDB,
		})
	}
	return items, nil
}
