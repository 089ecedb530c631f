// Package match narrows a search result list down to the candidates that
// plausibly answer a single-word query.
package match

import (
	"strings"
	"unicode"

	"github.com/hazyhaar/scoutlens/pkg/playerapi"
	"github.com/hazyhaar/scoutlens/pkg/textnorm"
)

// IsMultiWord reports whether the trimmed query contains whitespace.
func IsMultiWord(rawQuery string) bool {
	return strings.IndexFunc(strings.TrimSpace(rawQuery), unicode.IsSpace) >= 0
}

// Filter keeps the candidates whose name matches a single-word query.
//
// Multi-word queries are returned unchanged. A candidate matches when the
// normalized query occurs at a word boundary of its normalized name, or when
// one of its whitespace/hyphen separated name tokens starts with it, so
// "arda" keeps "Arda Güler" but not "Sardar Azmoun". If nothing matches, the
// input is returned as-is: filtering never turns API hits into "no results".
func Filter(candidates []playerapi.Candidate, rawQuery string) []playerapi.Candidate {
	if len(candidates) == 0 || IsMultiWord(rawQuery) {
		return candidates
	}
	q := textnorm.Normalize(rawQuery)
	if q == "" {
		return candidates
	}

	var matched []playerapi.Candidate
	for _, c := range candidates {
		if Matches(c.Name, q) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return candidates
	}
	return matched
}

// Matches reports whether name matches the already-normalized query q.
func Matches(name, q string) bool {
	for _, word := range strings.Fields(textnorm.Normalize(name)) {
		if strings.HasPrefix(word, q) {
			return true
		}
	}
	for _, tok := range textnorm.Tokens(name) {
		if strings.HasPrefix(textnorm.Normalize(tok), q) {
			return true
		}
	}
	return false
}
