// Package daemonctl launches, probes, and stops the background daemon on
// behalf of the CLI. Liveness comes from the pid file and a signal-0 probe;
// a live daemon also answers on its IPC socket.
package daemonctl
