package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trendsub/internal/config"
)

const userAgent = "trendsub/0.1.0"

// Event classifies a notification so ntfy tags and priority stay consistent.
type Event string

const (
	EventRunSummary Event = "run_summary"
	EventRunFailed  Event = "run_failed"
	EventTest       Event = "test"
)

// Service is the notification backend used by the pipeline and admin surface.
type Service interface {
	Post(ctx context.Context, event Event, title, body string) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// TestNotification posts a fixed message so users can check delivery.
func TestNotification(ctx context.Context, svc Service) error {
	return svc.Post(ctx, EventTest, "trendsub - Test", "🧪 Notification system test")
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

func payloadFor(event Event, title, body string) payload {
	data := payload{title: strings.TrimSpace(title), message: strings.TrimSpace(body)}
	switch event {
	case EventRunSummary:
		data.tags = []string{"trendsub", "subscribe", "added"}
	case EventRunFailed:
		data.tags = []string{"trendsub", "error", "alert"}
		data.priority = "high"
	case EventTest:
		data.tags = []string{"trendsub", "test"}
		data.priority = "low"
	default:
		data.tags = []string{"trendsub", string(event)}
	}
	return data
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Post(ctx context.Context, event Event, title, body string) error {
	return n.send(ctx, payloadFor(event, title, body))
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewNoop returns a service that drops every notification.
func NewNoop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) Post(context.Context, Event, string, string) error { return nil }
