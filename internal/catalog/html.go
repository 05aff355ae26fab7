package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// pagePattern extracts items from a known chart page. Pages are recognised
// by a substring of their URL; adapt turns one submatch set into an Item and
// reports false to drop it.
type pagePattern struct {
	marker  string
	pattern *regexp.Regexp
	adapt   func(m [][]byte, kind MediaKind) (Item, bool)
}

var pagePatterns = []pagePattern{
	{
		marker:  "top250",
		pattern: regexp.MustCompile(`(?s)class="hd">\s*<a href="https://movie\.douban\.com/subject/(\d+)/".*?<span class="title">([^<]+)</span>.*?<span class="rating_num"[^>]*>([\d.]+)</span>`),
		adapt:   subjectTitleRating,
	},
	{
		marker:  "chart",
		pattern: regexp.MustCompile(`(?s)<a class="nbg" href="https://movie\.douban\.com/subject/(\d+)/"\s*title="([^"]+)".*?<span class="rating_nums">([\d.]+)</span>`),
		adapt:   subjectTitleRating,
	},
}

func lookupPattern(pageURL string) (pagePattern, bool) {
	for _, p := range pagePatterns {
		if strings.Contains(pageURL, p.marker) {
			return p, true
		}
	}
	return pagePattern{}, false
}

// parseChartPage applies the pattern registered for pageURL. ok is false
// when no pattern matches the URL.
func parseChartPage(pageURL string, body []byte, kind MediaKind) (items []Item, ok bool) {
	p, ok := lookupPattern(pageURL)
	if !ok {
		return nil, false
	}
	return p.extract(body, kind), true
}

func (p pagePattern) extract(body []byte, kind MediaKind) []Item {
	matches := p.pattern.FindAllSubmatch(body, -1)
	items := make([]Item, 0, len(matches))
	for _, m := range matches {
		if item, ok := p.adapt(m, kind); ok {
			items = append(items, item)
		}
	}
	return items
}

// subjectTitleRating adapts (subject id, title, rating) groups.
func subjectTitleRating(m [][]byte, kind MediaKind) (Item, bool) {
	if len(m) < 4 {
		return Item{}, false
	}
	return doubanSubject(string(m[1]), string(m[2]), string(m[3]), kind), true
}

func doubanSubject(id, title, rating string, kind MediaKind) Item {
	return Item{
		ExternalID: id,
		Title:      strings.TrimSpace(html.UnescapeString(title)),
		Rating:     parseRating(rating),
		Kind:       kind,
		URL:        "https://movie.douban.com/subject/" + id + "/",
		Source:     SourceDouban,
	}
}
