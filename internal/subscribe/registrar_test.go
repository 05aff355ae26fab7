package subscribe_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"trendsub/internal/catalog"
	"trendsub/internal/logging"
	"trendsub/internal/recognize"
	"trendsub/internal/store"
	"trendsub/internal/subscribe"
	"trendsub/internal/testsupport"
)

type fakeLibrary struct {
	present bool
	err     error
	calls   int
	panics  bool
}

func (f *fakeLibrary) Exists(context.Context, int64, bool, int) (bool, error) {
	f.calls++
	if f.panics {
		panic("library down")
	}
	return f.present, f.err
}

type countingRegistry struct {
	subscribe.Registry
	adds int
}

func (c *countingRegistry) Add(ctx context.Context, sub store.Subscription, existOk bool) (*store.Subscription, error) {
	c.adds++
	return c.Registry.Add(ctx, sub, existOk)
}

func newRegistry(t *testing.T) *countingRegistry {
	t.Helper()
	return &countingRegistry{Registry: testsupport.MustOpenStore(t, testsupport.NewConfig(t))}
}

var movieX = recognize.Media{ID: 123, Title: "Movie X", Year: "2024", Kind: catalog.KindMovie}

func TestRegisterIfAbsentAddsOnce(t *testing.T) {
	registry := newRegistry(t)
	registrar := subscribe.NewRegistrar(&fakeLibrary{}, registry, logging.NewNop())
	ctx := context.Background()

	first := registrar.RegisterIfAbsent(ctx, movieX, 0, subscribe.OriginDouban)
	if !first.Added || first.SubscriptionID == "" {
		t.Fatalf("expected subscription added, got %#v", first)
	}
	second := registrar.RegisterIfAbsent(ctx, movieX, 0, subscribe.OriginDouban)
	if second.Added || !second.AlreadySubscribed() {
		t.Fatalf("expected already subscribed, got %#v", second)
	}
	if registry.adds != 1 {
		t.Fatalf("expected one add call, got %d", registry.adds)
	}
}

func TestLibraryHitShortCircuits(t *testing.T) {
	registry := newRegistry(t)
	registrar := subscribe.NewRegistrar(&fakeLibrary{present: true}, registry, logging.NewNop())
	out := registrar.RegisterIfAbsent(context.Background(), movieX, 0, subscribe.OriginTMDB)
	if out.Added || out.Reason != subscribe.ReasonInLibrary {
		t.Fatalf("unexpected outcome %#v", out)
	}
	if registry.adds != 0 {
		t.Fatalf("expected no add call, got %d", registry.adds)
	}
}

func TestBackendFailuresBecomeReasons(t *testing.T) {
	registry := newRegistry(t)
	cases := []struct {
		name    string
		library *fakeLibrary
		want    string
	}{
		{"library error", &fakeLibrary{err: errors.New("jellyfin offline")}, "jellyfin offline"},
		{"library panic", &fakeLibrary{panics: true}, "registrar panic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			registrar := subscribe.NewRegistrar(tc.library, registry, logging.NewNop())
			out := registrar.RegisterIfAbsent(context.Background(), movieX, 0, subscribe.OriginDouban)
			if out.Added || !strings.Contains(out.Reason, tc.want) {
				t.Fatalf("unexpected outcome %#v", out)
			}
		})
	}

	registrar := subscribe.NewRegistrar(nil, registry, logging.NewNop())
	out := registrar.RegisterIfAbsent(context.Background(), recognize.Media{ID: 0, Title: "bad", Kind: catalog.KindMovie}, 0, subscribe.OriginDouban)
	if out.Added || out.Reason == "" {
		t.Fatalf("expected add failure reason, got %#v", out)
	}
}

func TestSeriesSeasonsAreDistinct(t *testing.T) {
	registry := newRegistry(t)
	registrar := subscribe.NewRegistrar(&fakeLibrary{}, registry, logging.NewNop())
	show := recognize.Media{ID: 1399, Title: "GoT", Kind: catalog.KindSeries}
	for _, season := range []int{1, 2} {
		if out := registrar.RegisterIfAbsent(context.Background(), show, season, subscribe.OriginTMDB); !out.Added {
			t.Fatalf("season %d not added: %#v", season, out)
		}
	}
	if subscribe.OriginFor(catalog.SourceTMDB) != subscribe.OriginTMDB || subscribe.OriginFor(catalog.SourceDouban) != subscribe.OriginDouban {
		t.Fatal("unexpected origin mapping")
	}
}
