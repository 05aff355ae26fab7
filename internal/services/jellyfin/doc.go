// Package jellyfin checks whether media already exists in a Jellyfin library.
//
// Lookups match items by their TMDB provider id and, for series, confirm the
// requested season through the show's season list. When Jellyfin is disabled
// NewConfiguredService returns EmptyLibrary so every lookup reports absent.
package jellyfin
