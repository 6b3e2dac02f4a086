package matcher

import (
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"
)

var (
	quoteReplacer = strings.NewReplacer(
		"'", "",
		"\"", "",
		"‘", "",
		"’", "",
		"“", "",
		"”", "",
		":", " ",
		"%", "",
	)

	// unwraps "(part 2)" to "part 2" so the bracket pass keeps it; input is already lowercase
	partExpr = regexp2.MustCompile(`\((part\s+[^\s()]+)\)`, regexp2.None)
)

// Normalize canonicalizes a track or album name for comparison.
//
// The result is lowercase, without quotes, colons (replaced by a space), diacritics or percent signs,
// with "(part X)" unwrapped and every balanced (...) then [...] span removed.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = quoteReplacer.Replace(s)
	s = foldDiacritics(s)

	if replaced, err := partExpr.Replace(s, "$1", -1, -1); err == nil {
		s = replaced
	}

	s = stripEnclosed(s, '(', ')')
	s = stripEnclosed(s, '[', ']')
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// foldDiacritics maps accented Latin letters to their base letter (é -> e). Marks on other
// scripts, such as the kana voicing marks, are kept.
func foldDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var base rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			if unicode.Is(unicode.Latin, base) {
				continue
			}
		} else {
			base = r
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// stripEnclosed removes every balanced open...close span, nested spans included.
//
// An opening bracket that is never closed leaves the remainder of the string untouched.
func stripEnclosed(s string, open, close byte) string {
	var b strings.Builder
	b.Grow(len(s))

	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == open:
			if depth == 0 {
				start = i
			}
			depth++
		case c == close && depth > 0:
			depth--
		case depth == 0:
			b.WriteByte(c)
		}
	}

	if depth > 0 {
		b.WriteString(s[start:])
	}
	return b.String()
}
