package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trendsub/internal/config"
	"trendsub/internal/services"
)

// HTTPDoer describes the HTTP client used by the Jellyfin service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Library answers whether media already sits in the managed library.
type Library interface {
	// Exists reports whether the TMDB title is present. For series with a
	// positive season the season itself must be present.
	Exists(ctx context.Context, tmdbID int64, series bool, season int) (bool, error)
}

// EmptyLibrary is used when no Jellyfin server is configured.
type EmptyLibrary struct{}

// Exists always reports false.
func (EmptyLibrary) Exists(context.Context, int64, bool, int) (bool, error) {
	return false, nil
}

type httpService struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewConfiguredService returns the HTTP-backed library when Jellyfin is
// enabled with credentials, otherwise EmptyLibrary.
func NewConfiguredService(cfg *config.Config) Library {
	if cfg == nil || !cfg.Jellyfin.Enabled {
		return EmptyLibrary{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Jellyfin.URL), "/")
	apiKey := strings.TrimSpace(cfg.Jellyfin.APIKey)
	if baseURL == "" || apiKey == "" {
		return EmptyLibrary{}
	}
	return NewHTTPService(baseURL, apiKey, &http.Client{Timeout: 15 * time.Second})
}

// NewHTTPService constructs an HTTP-backed Jellyfin library.
func NewHTTPService(baseURL, apiKey string, client HTTPDoer) Library {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

type itemsResponse struct {
	Items []struct {
		ID          string `json:"Id"`
		Name        string `json:"Name"`
		Type        string `json:"Type"`
		IndexNumber *int   `json:"IndexNumber"`
	} `json:"Items"`
	TotalRecordCount int `json:"TotalRecordCount"`
}

func (s *httpService) Exists(ctx context.Context, tmdbID int64, series bool, season int) (bool, error) {
	if tmdbID <= 0 {
		return false, fmt.Errorf("invalid tmdb id %d", tmdbID)
	}
	itemType := "Movie"
	if series {
		itemType = "Series"
	}
	params := url.Values{}
	params.Set("AnyProviderIdEquals", fmt.Sprintf("Tmdb.%d", tmdbID))
	params.Set("IncludeItemTypes", itemType)
	params.Set("Recursive", "true")
	params.Set("Limit", "1")

	var items itemsResponse
	if err := s.get(ctx, "/Items", params, &items); err != nil {
		return false, err
	}
	if len(items.Items) == 0 {
		return false, nil
	}
	if !series || season <= 0 {
		return true, nil
	}

	var seasons itemsResponse
	if err := s.get(ctx, "/Shows/"+url.PathEscape(items.Items[0].ID)+"/Seasons", nil, &seasons); err != nil {
		return false, err
	}
	for _, entry := range seasons.Items {
		if entry.IndexNumber != nil && *entry.IndexNumber == season {
			return true, nil
		}
	}
	return false, nil
}

func (s *httpService) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := s.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build jellyfin request: %w", err)
	}
	req.Header.Set("X-Emby-Token", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "jellyfin", "library lookup", "request failed", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrUnauthorized, "jellyfin", "library lookup", "api key rejected", nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return services.Wrap(services.ErrFetch, "jellyfin", "library lookup", fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrFetch, "jellyfin", "library lookup", "decode response", err)
	}
	return nil
}
