// Package slug builds URL path segments from display names.
package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds the length of a generated slug in bytes
const MaxLength = 100

// Make lower-cases s, strips accents and joins runs of letters and digits
// with single dashes. Non-Latin letters (e.g. Arabic) are kept.
func Make(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	out := b.String()
	if len(out) > MaxLength {
		out = strings.TrimRight(truncate(out, MaxLength), "-")
	}
	return out
}

// Valid reports whether s is already in the form Make produces
func Valid(s string) bool {
	return s != "" && Make(s) == s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
