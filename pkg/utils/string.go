package utils

import "strings"

// Truncate shortens s to at most maxLen runes, appending an ellipsis when
// anything was cut. Multi-byte runes are never split.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// CollapseWhitespace folds runs of whitespace (including newlines) into
// single spaces. Useful for showing chunk snippets on one line.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
