// Package daemon coordinates the long-running trendsub process.
//
// It ties the run scheduler and the administrative operations into a single
// lifecycle with flock-based locking to prevent multiple instances, and serves
// the gin HTTP admin API: run now, history listing and token-guarded deletion,
// processed-key reset, subscription listing, status, and a test notification.
//
// Keep orchestration logic here: pipeline steps live in their own packages
// while the daemon focuses on startup, shutdown, and routing.
package daemon
