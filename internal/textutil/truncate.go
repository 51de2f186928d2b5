// Package textutil provides small text helpers shared across the agent.
package textutil

import "unicode/utf8"

// Truncate returns s truncated to at most max bytes without splitting a
// UTF-8 sequence. A non-positive max returns the empty string.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	// Back up past any continuation bytes so the cut lands on a rune
	// boundary.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// TruncateWithEllipsis truncates s to at most max bytes, replacing the
// tail with "..." when anything was removed. If max is too small to hold
// the ellipsis, it behaves like Truncate.
func TruncateWithEllipsis(s string, max int) string {
	const ellipsis = "..."
	if len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return Truncate(s, max)
	}
	return Truncate(s, max-len(ellipsis)) + ellipsis
}
