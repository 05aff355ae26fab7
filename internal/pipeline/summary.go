package pipeline

import (
	"fmt"
	"strings"
	"time"

	"trendsub/internal/catalog"
)

// CategorySummary counts what happened to a category's items during a run.
type CategorySummary struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Fetched    int    `json:"fetched"`
	Filtered   int    `json:"filtered"`
	Duplicate  int    `json:"duplicate"`
	Unresolved int    `json:"unresolved"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Added      int    `json:"added"`
	// Faulted is set when the category aborted on an unexpected panic.
	Faulted bool `json:"faulted,omitempty"`
}

// AddedItem is one subscription created by the run.
type AddedItem struct {
	Category       string         `json:"category"`
	Title          string         `json:"title"`
	Rating         float64        `json:"rating"`
	Source         catalog.Source `json:"source"`
	Key            string         `json:"key"`
	SubscriptionID string         `json:"subscription_id"`
}

// RunSummary is the result of one run.
type RunSummary struct {
	RunID      string            `json:"run_id"`
	Trigger    string            `json:"trigger"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Categories []CategorySummary `json:"categories"`
	Added      []AddedItem       `json:"added"`
	Cancelled  bool              `json:"cancelled"`
	Notified   bool              `json:"notified"`
}

// Empty reports whether the run added nothing.
func (s RunSummary) Empty() bool {
	return len(s.Added) == 0
}

// notificationText renders the single aggregated message for the run.
func notificationText(added []AddedItem) (string, string) {
	douban, tmdb := 0, 0
	lines := make([]string, 0, len(added))
	for _, item := range added {
		if item.Source == catalog.SourceTMDB {
			tmdb++
		} else {
			douban++
		}
		lines = append(lines, fmt.Sprintf("• [%s] %s (%s分)", item.Category, item.Title, formatRating(item.Rating)))
	}
	var title string
	switch {
	case tmdb == 0:
		title = fmt.Sprintf("豆瓣订阅新增 %d 部", len(added))
	case douban == 0:
		title = fmt.Sprintf("【TMDB趋势订阅】新增 %d 部", len(added))
	default:
		title = fmt.Sprintf("榜单订阅新增 %d 部", len(added))
	}
	return title, strings.Join(lines, "\n")
}

func formatRating(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
