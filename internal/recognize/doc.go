// Package recognize resolves catalog items to canonical TMDB identities.
//
// Resolution tries the item's external id first: TMDB ids are used as is,
// Douban ids go through the subject page's IMDb id and TMDB /find when the
// recognition source is themoviedb. Anything that fails there falls back to a
// title search. Season markers such as 第二季, Season 2 and S02 are stripped
// from the query and reported on the result.
package recognize
