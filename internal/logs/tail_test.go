package logs_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"trendsub/internal/logs"
)

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendsub.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected all 3 lines, got %#v", lines)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("expected nothing for missing file, got %#v at %d", lines, offset)
	}
}

func TestReadFromHoldsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendsub.log")
	if err := os.WriteFile(path, []byte("one\ntw"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	lines, offset, err := logs.ReadFrom(path, 0)
	if err != nil {
		t.Fatalf("ReadFrom returned error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "one" || offset != 4 {
		t.Fatalf("unexpected read %#v offset=%d", lines, offset)
	}

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("rewrite log: %v", err)
	}
	lines, _, err = logs.ReadFrom(path, 100)
	if err != nil {
		t.Fatalf("ReadFrom returned error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Fatalf("expected truncated file to restart from 0, got %#v", lines)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendsub.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	_, offset, err := logs.Last(path, 1)
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	seen := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 20*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
			if line == "later" {
				close(seen)
			}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit appended line")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected only the appended line, got %#v", got)
	}
}

func TestMatchLevel(t *testing.T) {
	minLevel, err := logs.ParseLevel("warn")
	if err != nil {
		t.Fatalf("ParseLevel returned error: %v", err)
	}
	cases := []struct {
		line string
		want bool
	}{
		{"2026-03-01T08:00:00Z INFO pipeline: run started", false},
		{"2026-03-01T08:00:00Z WARN pipeline [douban_movie_hot]: fetch failed", true},
		{"2026-03-01T08:00:00Z ERROR daemon: start failed", true},
		{`{"ts":"2026-03-01T08:00:00Z","level":"debug","msg":"tick"}`, false},
		{`{"ts":"2026-03-01T08:00:00Z","level":"error","msg":"boom"}`, true},
		{"    event_type: fetch_failed", true},
	}
	for _, tc := range cases {
		if got := logs.MatchLevel(tc.line, minLevel); got != tc.want {
			t.Fatalf("MatchLevel(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
	if level, _ := logs.ParseLevel(""); level != slog.LevelDebug {
		t.Fatalf("expected empty level to mean debug, got %v", level)
	}
	if _, err := logs.ParseLevel("loud"); err == nil {
		t.Fatal("expected unknown level to fail")
	}
}
