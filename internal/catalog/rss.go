package catalog

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

var (
	subjectIDPattern = regexp.MustCompile(`/subject/(\d+)`)
	feedRatingRegex  = regexp.MustCompile(`评分[:：]\s*([\d.]+)`)
)

// parseRankFeed reads an RSSHub Douban rank feed. Entries without a subject
// link are skipped. The rating comes from the description when present.
func parseRankFeed(parser *gofeed.Parser, body []byte, kind MediaKind) ([]Item, error) {
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}
		m := subjectIDPattern.FindStringSubmatch(entry.Link)
		title := strings.TrimSpace(html.UnescapeString(entry.Title))
		if m == nil || title == "" {
			continue
		}
		var rating float64
		desc := entry.Description
		if desc == "" {
			desc = entry.Content
		}
		if r := feedRatingRegex.FindStringSubmatch(desc); r != nil {
			rating = parseRating(r[1])
		}
		items = append(items, Item{
			ExternalID: m[1],
			Title:      title,
			Rating:     rating,
			Kind:       kind,
			URL:        entry.Link,
			Source:     SourceDouban,
		})
	}
	return items, nil
}
