// Package titles holds the rules for canonical track titles.
package titles

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize splits title on whitespace, capitalizes every word and joins the
// words back with single spaces. Only the first character of a word is
// upper-cased; the rest of the word is lower-cased, so "(hello" is left as
// "(hello" and "mcDONALD" becomes "Mcdonald".
//
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(title string) string {
	lower := cases.Lower(language.Und)
	words := strings.Fields(title)
	for i, word := range words {
		words[i] = capitalize(word, lower)
	}
	return strings.Join(words, " ")
}

func capitalize(word string, lower cases.Caser) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError && size <= 1 {
		return lower.String(word)
	}
	return string(unicode.ToTitle(first)) + lower.String(word[size:])
}

// Key is the grouping key used to detect duplicate titles.
func Key(title string) string {
	return fold(strings.TrimSpace(title))
}

func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Blacklist exempts titles from normalization by prefix or suffix.
// Matching is case-insensitive.
type Blacklist struct {
	Prefixes []string
	Suffixes []string
}

// Matches reports whether title starts with one of the prefixes or ends with
// one of the suffixes.
func (b Blacklist) Matches(title string) bool {
	return IsBlacklisted(title, b.Prefixes, b.Suffixes)
}

// IsBlacklisted reports whether the lower-cased title starts with any
// lower-cased prefix or ends with any lower-cased suffix. Titles and patterns
// are folded the same way as Key.
func IsBlacklisted(title string, prefixes, suffixes []string) bool {
	titleLower := fold(title)
	for _, pre := range prefixes {
		if strings.HasPrefix(titleLower, fold(pre)) {
			return true
		}
	}
	for _, suf := range suffixes {
		if strings.HasSuffix(titleLower, fold(suf)) {
			return true
		}
	}
	return false
}
