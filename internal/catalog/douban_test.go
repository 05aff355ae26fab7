package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"trendsub/internal/catalog"
	"trendsub/internal/services"
)

func TestDoubanXRefReadsIMDbID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subject/1292052/":
			_, _ = w.Write([]byte(`<div id="info"><span class="pl">导演</span>: 弗兰克·德拉邦特<br/>
<span class="pl">IMDb:</span> tt0111161<br></div>`))
		case "/subject/2/":
			_, _ = w.Write([]byte(`<div id="info"><span class="pl">导演</span>: 某人</div>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client, err := catalog.NewHTTPClient(catalog.HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}
	xref := catalog.NewDoubanXRef(client, server.URL+"/subject/%s/")

	id, err := xref.IMDbID(context.Background(), "1292052")
	if err != nil {
		t.Fatalf("IMDbID returned error: %v", err)
	}
	if id != "tt0111161" {
		t.Fatalf("unexpected imdb id %q", id)
	}

	if _, err := xref.IMDbID(context.Background(), "2"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for page without imdb id, got %v", err)
	}
	if _, err := xref.IMDbID(context.Background(), "3"); !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch for 404, got %v", err)
	}
	if _, err := xref.IMDbID(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank id")
	}
}
