package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type subjectsPayload struct {
	Subjects []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Rate  string `json:"rate"`
		URL   string `json:"url"`
	} `json:"subjects"`
}

// parseSubjects decodes a Douban j/search_subjects payload. The API does not
// report years.
func parseSubjects(body []byte, kind MediaKind) ([]Item, error) {
	var payload subjectsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode subjects: %w", err)
	}
	items := make([]Item, 0, len(payload.Subjects))
	for _, sub := range payload.Subjects {
		title := strings.TrimSpace(sub.Title)
		id := strings.TrimSpace(sub.ID)
		if title == "" || id == "" {
			continue
		}
		items = append(items, Item{
			ExternalID: id,
			Title:      title,
			Rating:     parseRating(sub.Rate),
			Kind:       kind,
			URL:        sub.URL,
			Source:     SourceDouban,
		})
	}
	return items, nil
}

// parseRating returns 0 for blank or malformed ratings.
func parseRating(value string) float64 {
	rating, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return rating
}
