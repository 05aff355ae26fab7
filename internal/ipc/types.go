package ipc

import (
	"trendsub/internal/admin"
	"trendsub/internal/daemon"
	"trendsub/internal/history"
	"trendsub/internal/store"
)

// RunOnceRequest queues a manual run.
type RunOnceRequest struct{}

// RunOnceResponse reports whether a new run was queued or coalesced.
type RunOnceResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the daemon status.
type StatusResponse = daemon.Status

// HistoryRequest lists history records newest first.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse contains history records.
type HistoryResponse struct {
	Records []history.Record `json:"records"`
}

// DeleteHistoryRequest removes one history record when the token matches.
type DeleteHistoryRequest struct {
	Key    string `json:"key"`
	APIKey string `json:"apikey"`
}

// DeleteHistoryResponse is the structured admin result.
type DeleteHistoryResponse = admin.Result

// ClearProcessedRequest wipes the processed-key set.
type ClearProcessedRequest struct{}

// ClearProcessedResponse reports how many keys were removed.
type ClearProcessedResponse struct {
	Removed int `json:"removed"`
}

// SubscriptionsRequest lists the local registry.
type SubscriptionsRequest struct{}

// SubscriptionsResponse contains registry rows.
type SubscriptionsResponse struct {
	Subscriptions []store.Subscription `json:"subscriptions"`
}

// RemoveSubscriptionRequest drops a registry row by id.
type RemoveSubscriptionRequest struct {
	ID string `json:"id"`
}

// RemoveSubscriptionResponse reports whether a row was removed.
type RemoveSubscriptionResponse struct {
	Removed bool `json:"removed"`
}

// TestNotificationRequest sends the fixed test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
