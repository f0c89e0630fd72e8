// Package divergence estimates how much meaning a back-translation lost.
//
// The score is a bag-of-words Jaccard distance over content tokens. The
// normalization rules and the stop-word table form a versioned policy: any
// change that can move a score must bump PolicyVersion.
package divergence

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PolicyVersion identifies the normalization and stop-word policy in effect.
//
// Version 3: NFKC, Unicode case folding (ß matches ss, final sigma matches
// sigma), punctuation and symbols replaced by spaces, stop words for the
// Latin, Cyrillic and Greek catalog languages. Japanese, Chinese, Korean and
// Arabic have no stop words. Folding is locale-free, so Turkish dotted İ does
// not match a plain i.
const PolicyVersion = 3

// Score returns a divergence in [0,100] between original and backTranslated.
// 0 means the content-word sets are identical, 100 means they share nothing.
// Score is symmetric.
func Score(original, backTranslated string) int {
	left := tokenSet(original)
	right := tokenSet(backTranslated)

	switch {
	case len(left) == 0 && len(right) == 0:
		return 0
	case len(left) == 0 || len(right) == 0:
		return 100
	}

	intersection := 0
	for token := range left {
		if _, ok := right[token]; ok {
			intersection++
		}
	}
	union := len(left) + len(right) - intersection
	similarity := float64(intersection) / float64(union)

	score := int(math.Round(100 * (1 - similarity)))
	return max(0, min(100, score))
}

// Tokens returns the content tokens of text after normalization and stop-word
// removal, in first-seen order without duplicates.
func Tokens(text string) []string {
	fields := strings.Fields(Normalize(text))
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if isStopWord(field) {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}

// Normalize applies NFKC, case-folds, replaces punctuation and symbols with
// spaces and collapses whitespace.
func Normalize(text string) string {
	composed := norm.NFKC.String(text)
	lowered := cases.Fold().String(composed)

	var b strings.Builder
	b.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) || unicode.IsControl(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimRight(b.String(), " ")
}

func tokenSet(text string) map[string]struct{} {
	tokens := Tokens(text)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
