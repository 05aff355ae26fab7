// Package daemonrun hosts the daemon process entry point: it sets up the
// per-start log file, the pid file, and signal handling, wires the pipeline
// graph, and serves IPC until SIGINT or SIGTERM.
package daemonrun
