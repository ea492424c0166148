package brain

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z\-']+`)

// Tokenize lowercases every word-like run of the text. Order and duplicates
// are kept; Learn deduplicates on its own.
func Tokenize(text string) []string {
	var tokens []string
	for _, w := range wordRe.FindAllString(text, -1) {
		if len(w) > 1 {
			tokens = append(tokens, strings.ToLower(w))
		}
	}
	return tokens
}
