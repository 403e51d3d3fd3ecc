package utils

import "strings"

// NormalizeWhitespace trims and collapses runs of whitespace to a single space.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanPtr normalizes whitespace in *s and returns nil for nil input. A value
// that is only whitespace becomes "" (blank, not missing).
func CleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := NormalizeWhitespace(*s)
	return &v
}
