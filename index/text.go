package index

import (
	"strings"
	"unicode"
)

// Stop words excluded from indexing and expansion
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "we": true, "its": true, "can": true,
	"which": true, "when": true, "what": true, "their": true, "these": true,
}

// IsStopWord reports whether the token carries no retrieval signal.
func IsStopWord(token string) bool {
	return stopWords[token]
}

// Tokenize splits text into lowercase alphanumeric tokens.
// Punctuation and other symbols act as separators.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// SignificantTokens tokenizes text and removes stop words and single-letter
// tokens.
func SignificantTokens(s string) []string {
	tokens := Tokenize(s)
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) < 2 || stopWords[token] {
			continue
		}
		filtered = append(filtered, token)
	}
	return filtered
}
