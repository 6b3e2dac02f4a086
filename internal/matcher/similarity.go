package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// titleSeparators are checked in order; the first one present wins.
var titleSeparators = []string{" - ", " pts. ", " feat. "}

// Similarity returns a normalized edit-distance score between 0 and 1, where 1 means identical.
//
// Distance and length are counted in characters, so multi-byte scripts score like Latin ones.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// ComparisonTitle normalizes a title and drops any suffix introduced by a known separator.
func ComparisonTitle(title string) string {
	s := Normalize(title)
	for _, sep := range titleSeparators {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
			break
		}
	}
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
