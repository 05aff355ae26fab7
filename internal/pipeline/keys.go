package pipeline

import (
	"fmt"
	"strings"

	"trendsub/internal/catalog"
)

// ProcessedKey is the dedup key for item. Douban items use the history
// unique key format so clearing one clears the other; TMDB items use
// "{movie|tv}_{id}".
func ProcessedKey(item catalog.Item, cat catalog.Category) string {
	if cat.Source() == catalog.SourceTMDB {
		kind := item.Kind
		if kind == "" {
			kind = cat.Kind
		}
		return fmt.Sprintf("%s_%s", kind, item.ExternalID)
	}
	return fmt.Sprintf("%s%s (DB:%s)", DoubanKeyPrefix, item.Title, item.ExternalID)
}

// DoubanKeyPrefix starts every Douban processed key.
const DoubanKeyPrefix = "doubanrank: "

// IsDoubanKey reports whether key belongs to a Douban item. Those keys double
// as history unique keys, so history deletes and clears release them.
func IsDoubanKey(key string) bool {
	return strings.HasPrefix(key, DoubanKeyPrefix)
}
