package util

import (
	"strings"
	"unicode/utf8"
)

// SanitizeLabel lowercases s and keeps only ASCII letters and digits, so the
// result is safe to use as a file extension. It returns fallback when nothing
// survives.
func SanitizeLabel(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// TruncateTail keeps at most the last n bytes of s, moving the cut forward
// so no UTF-8 sequence is split.
func TruncateTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
