// Package main hosts the trendsub CLI.
//
// Most commands are thin IPC calls against the running daemon (run, history,
// processed, subscriptions, status, test-notify). The daemon command runs the
// daemon in the foreground, start and stop manage it in the background, and
// run --once and logs work without a daemon at all.
//
// Add behavior to the internal packages first and surface it here.
package main
