// Package textnorm turns display names into a canonical form that can be
// compared across spelling variants (accents, punctuation, case).
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes s, strips combining marks and punctuation, lowercases
// with Turkish casing rules and trims surrounding whitespace.
//
//	"Arda Güler"   -> "arda guler"
//	"N'Golo Kanté" -> "ngolo kante"
//	"IRFAN"        -> "ırfan"
//	"İlkay"        -> "ilkay"
//
// Dotted capital İ is folded to i before decomposition; otherwise stripping
// its dot would leave a plain I that lowers to ı.
//
// Normalize never fails; input that is empty or has no word runes yields "".
// Transformers and casers carry state, so both are built per call.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(
		runes.Map(foldDottedI),
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(isPunct)),
	)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cases.Lower(language.Turkish).String(stripped))
}

// Tokens splits s on runs of whitespace and hyphens.
func Tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
}

func foldDottedI(r rune) rune {
	if r == 'İ' {
		return 'i'
	}
	return r
}

// isPunct reports whether r is neither a word rune nor whitespace.
// Word runes are Unicode letters, digits and '_'; keeping non-ASCII letters
// (such as the dotless ı produced by Turkish lowering) keeps Normalize idempotent.
func isPunct(r rune) bool {
	if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return false
	}
	return true
}
