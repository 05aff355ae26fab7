package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trendsub/internal/catalog"
	"trendsub/internal/logging"
	"trendsub/internal/tmdb"
)

const top250Page = `<html><body><ol class="grid_view">
<li><div class="item"><div class="info"><div class="hd">
<a href="https://movie.douban.com/subject/1292052/" class="">
<span class="title">肖申克的救赎</span>
<span class="title">&nbsp;/&nbsp;The Shawshank Redemption</span>
</a></div><div class="bd"><div class="star">
<span class="rating5-t"></span><span class="rating_num" property="v:average">9.7</span>
</div></div></div></div></li>
<li><div class="item"><div class="info"><div class="hd">
<a href="https://movie.douban.com/subject/1291546/" class="">
<span class="title">霸王别姬</span>
</a></div><div class="bd"><div class="star">
<span class="rating_num" property="v:average">9.6</span>
</div></div></div></div></li>
</ol></body></html>`

const chartPage = `<table><tr><td>
<a class="nbg" href="https://movie.douban.com/subject/35267208/"  title="Tom &amp; Jerry">
<img src="x.jpg"></a></td><td><div class="pl2"><div class="star clearfix">
<span class="allstar40"></span><span class="rating_nums">7.9</span></div></div></td></tr></table>`

const rankFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>豆瓣电影一周口碑榜</title>
<item><title>奥本海默</title><link>https://movie.douban.com/subject/35593344/</link>
<description>&lt;p&gt;评分：8.8&lt;/p&gt;</description></item>
<item><title>No link</title><link>https://example.com/x</link></item>
<item><title>无评分</title><link>https://movie.douban.com/subject/123456/</link><description>暂无</description></item>
</channel></rss>`

type stubLister struct {
	resp *tmdb.Response
	err  error
	path string
}

func (s *stubLister) List(_ context.Context, path string) (*tmdb.Response, error) {
	s.path = path
	return s.resp, s.err
}

func newTestFetcher(t *testing.T, handler http.HandlerFunc, lister catalog.Lister) (*catalog.Fetcher, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := catalog.NewHTTPClient(catalog.HTTPOptions{UserAgent: "test-agent", Referer: "https://movie.douban.com/"})
	if err != nil {
		t.Fatalf("NewHTTPClient returned error: %v", err)
	}
	return catalog.NewFetcher(client, lister, logging.NewNop()), server.URL
}

func TestFetchAPISubjects(t *testing.T) {
	fetcher, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" || r.Header.Get("Referer") != "https://movie.douban.com/" {
			t.Errorf("missing browser headers: %v", r.Header)
		}
		_, _ = w.Write([]byte(`{"subjects":[{"id":"1","title":"Alpha","rate":"8.1","url":"u1"},{"id":"2","title":"Beta","rate":""},{"id":"3","title":"Gamma","rate":"7.0"}]}`))
	}, nil)

	items := fetcher.Fetch(context.Background(), catalog.Category{Key: "tv_hot", Strategy: catalog.StrategyAPI, URL: base + "/j/search_subjects", Kind: catalog.KindSeries})
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ExternalID != "1" || items[0].Rating != 8.1 || items[0].Kind != catalog.KindSeries || items[0].Source != catalog.SourceDouban {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Rating != 0 || items[1].Year != "" {
		t.Fatalf("expected blank rating to parse as zero and no year, got %+v", items[1])
	}
}

func TestFetchTruncatesToCount(t *testing.T) {
	fetcher, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"subjects":[{"id":"1","title":"A"},{"id":"2","title":"B"},{"id":"3","title":"C"}]}`))
	}, nil)
	items := fetcher.Fetch(context.Background(), catalog.Category{Strategy: catalog.StrategyAPI, URL: base, Count: 2})
	if len(items) != 2 || items[1].ExternalID != "2" {
		t.Fatalf("expected first two items, got %+v", items)
	}
}

func TestFetchHTMLPatternTable(t *testing.T) {
	fetcher, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/top250":
			_, _ = w.Write([]byte(top250Page))
		case "/chart":
			_, _ = w.Write([]byte(chartPage))
		default:
			_, _ = w.Write([]byte("<html></html>"))
		}
	}, nil)

	top := fetcher.Fetch(context.Background(), catalog.Category{Strategy: catalog.StrategyHTML, URL: base + "/top250", Kind: catalog.KindMovie})
	if len(top) != 2 {
		t.Fatalf("expected 2 top250 items, got %+v", top)
	}
	if top[0].ExternalID != "1292052" || top[0].Title != "肖申克的救赎" || top[0].Rating != 9.7 {
		t.Fatalf("unexpected top250 item %+v", top[0])
	}

	chart := fetcher.Fetch(context.Background(), catalog.Category{Strategy: catalog.StrategyHTML, URL: base + "/chart", Kind: catalog.KindMovie})
	if len(chart) != 1 || chart[0].Title != "Tom & Jerry" || chart[0].Rating != 7.9 {
		t.Fatalf("expected unescaped chart title, got %+v", chart)
	}

	if got := fetcher.Fetch(context.Background(), catalog.Category{Strategy: catalog.StrategyHTML, URL: base + "/unknown"}); len(got) != 0 {
		t.Fatalf("expected no items for unmatched page, got %+v", got)
	}
}

func TestFetchRSSFeed(t *testing.T) {
	fetcher, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rankFeed))
	}, nil)

	items := fetcher.Fetch(context.Background(), catalog.Category{Strategy: catalog.StrategyRSS, URL: base + "/douban/movie/weekly", Kind: catalog.KindMovie})
	if len(items) != 2 {
		t.Fatalf("expected 2 feed items, got %+v", items)
	}
	if items[0].ExternalID != "35593344" || items[0].Rating != 8.8 {
		t.Fatalf("unexpected first feed item %+v", items[0])
	}
	if items[1].Rating != 0 {
		t.Fatalf("expected missing rating to be zero, got %v", items[1].Rating)
	}
}

func TestFetchTMDBList(t *testing.T) {
	lister := &stubLister{resp: &tmdb.Response{Results: []tmdb.Result{
		{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31", VoteAverage: 8.2},
		{ID: 0, Title: "skipped"},
	}}}
	fetcher := catalog.NewFetcher(nil, lister, logging.NewNop())

	items := fetcher.Fetch(context.Background(), catalog.Category{Strategy: catalog.StrategyTMDB, URL: "movie/popular", Kind: catalog.KindMovie})
	if lister.path != "movie/popular" {
		t.Fatalf("unexpected list path %q", lister.path)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %+v", items)
	}
	got := items[0]
	if got.ExternalID != "603" || got.Year != "1999" || got.Source != catalog.SourceTMDB || !strings.HasSuffix(got.URL, "/movie/603") {
		t.Fatalf("unexpected tmdb item %+v", got)
	}
}

func TestFetchFailsSoftly(t *testing.T) {
	fetcher, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad-json" {
			_, _ = w.Write([]byte("not json"))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}, &stubLister{err: errors.New("boom")})

	cases := []catalog.Category{
		{Strategy: catalog.StrategyAPI, URL: base + "/forbidden"},
		{Strategy: catalog.StrategyAPI, URL: base + "/bad-json"},
		{Strategy: catalog.StrategyRSS, URL: base + "/bad-json"},
		{Strategy: catalog.StrategyAPI, URL: "http://127.0.0.1:1/unreachable"},
		{Strategy: catalog.StrategyTMDB, URL: "movie/popular"},
		{Strategy: "ftp", URL: base},
	}
	for _, cat := range cases {
		if items := fetcher.Fetch(context.Background(), cat); len(items) != 0 {
			t.Fatalf("expected empty result for %+v, got %+v", cat, items)
		}
	}
}

func TestCategorySource(t *testing.T) {
	if (catalog.Category{Strategy: catalog.StrategyTMDB}).Source() != catalog.SourceTMDB {
		t.Fatal("expected tmdb source")
	}
	if (catalog.Category{Strategy: catalog.StrategyHTML}).Source() != catalog.SourceDouban {
		t.Fatal("expected douban source")
	}
	if catalog.ParseMediaKind("TV") != catalog.KindSeries || catalog.ParseMediaKind("movie") != catalog.KindMovie {
		t.Fatal("unexpected media kind parsing")
	}
}
