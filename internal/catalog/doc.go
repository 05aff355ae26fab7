// Package catalog fetches ranked media lists and normalizes them into Items.
//
// Four strategies are supported: the Douban j/search_subjects JSON API, Douban
// chart pages matched through a URL-marker pattern table, RSSHub rank feeds
// parsed with gofeed, and TMDB list endpoints. All outbound page requests go
// through HTTPClient, which sends a browser User-Agent and Referer and applies
// a proxy only when one is explicitly configured. Fetch absorbs every failure
// into an empty result so one broken source never stops a run.
//
// DoubanXRef reads Douban subject pages to find the IMDb id used to map
// Douban entries onto TMDB.
package catalog
