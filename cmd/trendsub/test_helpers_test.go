package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trendsub/internal/admin"
	"trendsub/internal/config"
	"trendsub/internal/daemon"
	"trendsub/internal/dedup"
	"trendsub/internal/history"
	"trendsub/internal/ipc"
	"trendsub/internal/logging"
	"trendsub/internal/pipeline"
	"trendsub/internal/scheduler"
	"trendsub/internal/store"
	"trendsub/internal/testsupport"
)

const testAPIToken = "cli-secret"

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	processed  *dedup.Set
	history    *history.Log
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(testAPIToken))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "trendsub.toml")
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	processed, err := dedup.Open(cfg.ProcessedPath())
	if err != nil {
		t.Fatalf("dedup.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = processed.Close() })
	log := history.New(st, 0)

	logger := logging.NewNop()
	sched := scheduler.New(func(context.Context, string) {}, logger)
	svc := admin.New(admin.Deps{
		Token:         testAPIToken,
		Processed:     processed,
		History:       log,
		Subscriptions: st,
		Scheduler:     sched,
		Runner:        pipeline.NewRunner(pipeline.Deps{}),
		Logger:        logger,
	})
	d, err := daemon.New(cfg, svc, sched, logger, daemon.Options{})
	if err != nil {
		t.Fatalf("daemon.New returned error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	socketPath := filepath.Join(cfg.Paths.DataDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer returned error: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	time.Sleep(50 * time.Millisecond)

	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		processed:  processed,
		history:    log,
		daemon:     d,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\napi_bind = %q\napi_token = %q\n\n[tmdb]\napi_key = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Paths.APIToken,
		cfg.TMDB.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}
