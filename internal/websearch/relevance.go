package websearch

import "strings"

// CoinKeywords are the terms that mark a page as being about coins.
var CoinKeywords = []string{
	"numismatic", "coin", "mint", "obverse", "reverse", "dynasty",
	"ruler", "bullion", "drachm", "tetradrachm", "aureus", "denarius",
	"ancient", "currency", "collection", "emperor", "king",
}

// DefaultRelevanceThreshold is the number of distinct keywords a page
// needs to be kept.
const DefaultRelevanceThreshold = 3

// CountKeywords returns how many distinct CoinKeywords occur in text,
// case-insensitively and as substrings.
func CountKeywords(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range CoinKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// Relevant reports whether text mentions at least threshold keywords.
// Empty text is never relevant.
func Relevant(text string, threshold int) bool {
	if text == "" {
		return false
	}
	return CountKeywords(text) >= threshold
}

// CleanText trims s, turns newlines into spaces and halves runs of two spaces.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "  ", " ")
}
