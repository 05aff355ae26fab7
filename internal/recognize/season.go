package recognize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var (
	chineseSeasonPattern = regexp.MustCompile(`第\s*([0-9零一二两三四五六七八九十]+)\s*季`)
	seasonPattern        = regexp.MustCompile(`(?i)\bseason\s*(\d{1,2})\b`)
	sPattern             = regexp.MustCompile(`(?i)\bS(\d{1,2})\b`)
)

var chineseDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// SplitSeason removes a season marker from title and returns the cleaned
// title with the season number. Full-width digits and letters are folded
// first. A title without a marker returns season 0.
func SplitSeason(title string) (string, int) {
	folded := width.Fold.String(title)
	for _, pattern := range []*regexp.Regexp{chineseSeasonPattern, seasonPattern, sPattern} {
		loc := pattern.FindStringSubmatchIndex(folded)
		if loc == nil {
			continue
		}
		season := parseSeasonNumber(folded[loc[2]:loc[3]])
		if season <= 0 {
			continue
		}
		cleaned := folded[:loc[0]] + " " + folded[loc[1]:]
		return tidyTitle(cleaned), season
	}
	return strings.TrimSpace(title), 0
}

func parseSeasonNumber(raw string) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return parseChineseNumber(raw)
}

// parseChineseNumber handles numerals up to 99 such as 三, 十二 and 二十一.
func parseChineseNumber(raw string) int {
	runes := []rune(raw)
	if len(runes) == 0 {
		return 0
	}
	total, current := 0, 0
	for _, r := range runes {
		if r == '十' {
			if current == 0 {
				current = 1
			}
			total += current * 10
			current = 0
			continue
		}
		digit, ok := chineseDigits[r]
		if !ok {
			return 0
		}
		current = digit
	}
	return total + current
}

func tidyTitle(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	return strings.Trim(value, " -:：·")
}
