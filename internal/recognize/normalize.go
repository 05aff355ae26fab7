package recognize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var titleFolder = cases.Fold()

// normalizeForComparison folds width and case and drops everything except
// letters and digits so "The Matrix" and "ＴＨＥ　ＭＡＴＲＩＸ!" compare equal.
func normalizeForComparison(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	normalized := titleFolder.String(width.Fold.String(input))
	normalized = strings.ReplaceAll(normalized, "&", "and")

	var builder strings.Builder
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
