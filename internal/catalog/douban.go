package catalog

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"trendsub/internal/services"
)

const defaultSubjectURL = "https://movie.douban.com/subject/%s/"

var imdbIDPattern = regexp.MustCompile(`IMDb[:：]?\s*(tt\d{5,})`)

// DoubanXRef maps Douban subject ids to IMDb ids by reading the subject page.
type DoubanXRef struct {
	getter     Getter
	subjectURL string
}

// NewDoubanXRef builds a cross-reference resolver. subjectURL is a format
// string with one %s for the subject id; empty uses movie.douban.com.
func NewDoubanXRef(getter Getter, subjectURL string) *DoubanXRef {
	if strings.TrimSpace(subjectURL) == "" {
		subjectURL = defaultSubjectURL
	}
	return &DoubanXRef{getter: getter, subjectURL: subjectURL}
}

// IMDbID returns the IMDb id listed in the subject's info block.
func (x *DoubanXRef) IMDbID(ctx context.Context, doubanID string) (string, error) {
	doubanID = strings.TrimSpace(doubanID)
	if doubanID == "" {
		return "", services.Wrap(services.ErrValidation, "douban", "imdb lookup", "empty subject id", nil)
	}
	body, err := x.getter.Get(ctx, fmt.Sprintf(x.subjectURL, doubanID))
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrFetch, "douban", "imdb lookup", "parse subject page", err)
	}
	info := doc.Find("#info").Text()
	if info == "" {
		info = doc.Text()
	}
	if m := imdbIDPattern.FindStringSubmatch(info); m != nil {
		return m[1], nil
	}
	return "", services.Wrap(services.ErrNotFound, "douban", "imdb lookup", "subject "+doubanID+" lists no IMDb id", nil)
}
