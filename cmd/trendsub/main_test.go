package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"trendsub/internal/catalog"
	"trendsub/internal/history"
	"trendsub/internal/store"
)

func TestCLIHistoryListAndDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	out, _, err := runCLI(t, []string{"history", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "History is empty")

	for _, rec := range []history.Record{
		{Title: "The Matrix", Kind: "电影", Year: "1999", Rating: 8.2, Category: "TMDB Trending Movies", UniqueKey: "movie_603"},
		{Title: "Dark", Kind: "电视剧", Year: "2017", Rating: 8.4, Category: "TMDB Trending TV", UniqueKey: "tv_70523"},
	} {
		if err := env.history.Append(ctx, rec); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	out, _, err = runCLI(t, []string{"history", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "The Matrix")
	requireContains(t, out, "tv_70523")
	if strings.Index(out, "Dark") > strings.Index(out, "The Matrix") {
		t.Fatalf("expected newest record first, got:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"history", "list", "--limit", "1", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history list --json: %v", err)
	}
	var records []history.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode history json: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0].UniqueKey != "tv_70523" {
		t.Fatalf("unexpected limited history %#v", records)
	}

	if _, _, err := runCLI(t, []string{"history", "delete", "movie_603", "--apikey", "wrong"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected wrong api key to fail")
	}

	out, _, err = runCLI(t, []string{"history", "delete", "movie_603"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history delete: %v", err)
	}
	requireContains(t, out, "删除成功")

	remaining, err := env.history.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].UniqueKey != "tv_70523" {
		t.Fatalf("unexpected history after delete %#v", remaining)
	}
}

func TestCLIProcessedClear(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, key := range []string{"movie_1", "tv_2"} {
		if err := env.processed.MarkProcessed(key); err != nil {
			t.Fatalf("MarkProcessed returned error: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"processed", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("processed clear: %v", err)
	}
	requireContains(t, out, "Cleared 2 processed keys")
	if env.processed.IsProcessed("movie_1") {
		t.Fatal("expected processed keys to be cleared")
	}
}

func TestCLISubscriptionsListAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	out, _, err := runCLI(t, []string{"subscriptions"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("subscriptions: %v", err)
	}
	requireContains(t, out, "No subscriptions")

	sub, err := env.store.Add(ctx, store.Subscription{
		Title:  "Dark",
		Year:   "2017",
		Kind:   catalog.KindSeries,
		TMDBID: 70523,
		Season: 2,
		Origin: "TMDB Trending TV",
	}, false)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	out, _, err = runCLI(t, []string{"subs", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("subs list: %v", err)
	}
	requireContains(t, out, "Dark")
	requireContains(t, out, "70523")
	requireContains(t, out, "电视剧")

	out, _, err = runCLI(t, []string{"subscriptions", "remove", sub.ID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("subscriptions remove: %v", err)
	}
	requireContains(t, out, "Removed subscription "+sub.ID)

	if _, _, err := runCLI(t, []string{"subscriptions", "remove", sub.ID}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected removing a missing subscription to fail")
	}
}

func TestCLIRunOnceRefusesWhileDaemonLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	lock := flock.New(env.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	_, _, err = runCLI(t, []string{"run", "--once"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected run --once to fail while the daemon lock is held")
	}
	requireContains(t, err.Error(), "daemon is running")
	if env.processed.Len() != 0 {
		t.Fatalf("expected no processed keys, got %d", env.processed.Len())
	}
}

func TestCLIRunStatusAndNotify(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Run queued")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon:")
	requireContains(t, out, "Subscriptions:")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode status json: %v\n%s", err, out)
	}
	if _, ok := payload["database_path"]; !ok {
		t.Fatalf("expected database_path in status json, got %v", payload)
	}

	out, _, err = runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
}

func TestCLIWithoutDaemonReportsSocket(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := env.socketPath + ".missing"

	_, _, err := runCLI(t, []string{"history", "list"}, missing, env.configPath)
	if err == nil {
		t.Fatal("expected dial error without daemon")
	}
	requireContains(t, err.Error(), "trendsub start")

	out, _, err := runCLI(t, []string{"status"}, missing, env.configPath)
	if err != nil {
		t.Fatalf("status without daemon: %v", err)
	}
	requireContains(t, out, "Not running")
}

func TestSocketPathPrecedence(t *testing.T) {
	env := setupCLITestEnv(t)
	flag := ""
	configFlag := env.configPath
	ctx := newCommandContext(&flag, &configFlag)

	if got := ctx.socketPath(); got != env.cfg.SocketPath() {
		t.Fatalf("expected configured socket %s, got %s", env.cfg.SocketPath(), got)
	}
	t.Setenv(socketEnv, "/tmp/env.sock")
	if got := ctx.socketPath(); got != "/tmp/env.sock" {
		t.Fatalf("expected env socket, got %s", got)
	}
	flag = "/tmp/flag.sock"
	if got := ctx.socketPath(); got != "/tmp/flag.sock" {
		t.Fatalf("expected flag socket, got %s", got)
	}
}
