package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"trendsub/internal/catalog"
	"trendsub/internal/store"
	"trendsub/internal/testsupport"
)

func TestBlobRoundTripAndReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	ctx := context.Background()

	value, err := st.Get(ctx, "history")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil for missing namespace, got %q", value)
	}
	if err := st.Set(ctx, "history", []byte(`[1]`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := st.Set(ctx, "history", []byte(`[1,2]`)); err != nil {
		t.Fatalf("Set overwrite returned error: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	value, err = reopened.Get(ctx, "history")
	if err != nil {
		t.Fatalf("Get after reopen returned error: %v", err)
	}
	if string(value) != `[1,2]` {
		t.Fatalf("unexpected value %q", value)
	}
	if err := reopened.Delete(ctx, "history"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if value, _ := reopened.Get(ctx, "history"); value != nil {
		t.Fatalf("expected namespace removed, got %q", value)
	}
	if _, err := reopened.Get(ctx, " "); err == nil {
		t.Fatal("expected error for blank namespace")
	}
}

func TestAddSubscriptionExistOk(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := st.Add(ctx, store.Subscription{Title: "Movie X", Year: "2024", Kind: catalog.KindMovie, TMDBID: 123, Origin: "豆瓣榜单"}, true)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %#v", first)
	}

	again, err := st.Add(ctx, store.Subscription{Title: "Movie X", Kind: catalog.KindMovie, TMDBID: 123, Season: 3}, true)
	if err != nil {
		t.Fatalf("Add existOk returned error: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected existing row %s, got %s", first.ID, again.ID)
	}

	if _, err := st.Add(ctx, store.Subscription{Title: "Movie X", Kind: catalog.KindMovie, TMDBID: 123}, false); !errors.Is(err, store.ErrSubscriptionExists) {
		t.Fatalf("expected ErrSubscriptionExists, got %v", err)
	}

	subs, err := st.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions returned error: %v", err)
	}
	if len(subs) != 1 || subs[0].Origin != "豆瓣榜单" {
		t.Fatalf("unexpected subscriptions %#v", subs)
	}
}

func TestExistsDistinguishesSeasons(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := st.Add(ctx, store.Subscription{Title: "Show", Kind: catalog.KindSeries, TMDBID: 1399, Season: 2}, true); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	cases := []struct {
		name   string
		kind   catalog.MediaKind
		season int
		want   bool
	}{
		{"same season", catalog.KindSeries, 2, true},
		{"other season", catalog.KindSeries, 1, false},
		{"whole show", catalog.KindSeries, 0, false},
		{"movie with same id", catalog.KindMovie, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := st.Exists(ctx, 1399, tc.kind, tc.season)
			if err != nil {
				t.Fatalf("Exists returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Exists = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAddValidates(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	bad := []store.Subscription{
		{Title: "", Kind: catalog.KindMovie, TMDBID: 1},
		{Title: "x", Kind: catalog.KindMovie, TMDBID: 0},
		{Title: "x", Kind: "book", TMDBID: 1},
	}
	for _, sub := range bad {
		if _, err := st.Add(ctx, sub, true); err == nil {
			t.Fatalf("expected error for %#v", sub)
		}
	}
}

func TestRemoveSubscription(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	sub, err := st.Add(ctx, store.Subscription{Title: "Movie", Kind: catalog.KindMovie, TMDBID: 9}, true)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	removed, err := st.RemoveSubscription(ctx, sub.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveSubscription = %v, %v", removed, err)
	}
	removed, err = st.RemoveSubscription(ctx, sub.ID)
	if err != nil || removed {
		t.Fatalf("second RemoveSubscription = %v, %v", removed, err)
	}
}

func TestOpenPathCreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")
	for i := 0; i < 2; i++ {
		st, err := store.OpenPath(path)
		if err != nil {
			t.Fatalf("OpenPath #%d returned error: %v", i, err)
		}
		if err := st.Ping(context.Background()); err != nil {
			t.Fatalf("Ping returned error: %v", err)
		}
		_ = st.Close()
	}
}
