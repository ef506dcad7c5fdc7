package trcutil

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis is appended to text that has been truncated.
const Ellipsis = "…"

// Truncate returns s if it fits in max bytes. Otherwise it returns the longest
// prefix of s that ends on a rune boundary and, together with the ellipsis,
// fits in max bytes. A max of zero or less disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	cut := max - len(Ellipsis)
	if cut <= 0 {
		return Ellipsis
	}

	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + Ellipsis
}

// SingleLine collapses every run of whitespace, including newlines, into a
// single space, so that multi-line text can't break line-oriented logs.
func SingleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n\t") {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// DescribeError renders err as a single truncated line. A nil error renders
// as "<nil>".
func DescribeError(err error, max int) string {
	if err == nil {
		return "<nil>"
	}
	return Truncate(SingleLine(err.Error()), max)
}
