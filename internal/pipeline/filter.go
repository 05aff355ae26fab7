package pipeline

import "trendsub/internal/catalog"

// Passes reports whether item clears the rating threshold. A threshold of
// zero or below admits everything; a missing rating counts as 0.
func Passes(item catalog.Item, threshold float64) bool {
	return threshold <= 0 || item.Rating >= threshold
}
