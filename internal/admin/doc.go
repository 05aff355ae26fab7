// Package admin holds the administrative operations exposed over HTTP, IPC
// and the CLI: deleting a history record with the shared API token, clearing
// processed keys, queueing a manual run, and reporting status.
package admin
