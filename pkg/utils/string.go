// Package utils provides common utility functions.
package utils

import "strings"

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// NormalizeWhitespace replaces runs of whitespace with a single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString shortens str to at most maxRunes runes plus "...".
func (s *StringHelper) TruncateString(str string, maxRunes int) string {
	runes := []rune(str)
	if maxRunes < 0 || len(runes) <= maxRunes {
		return str
	}

	return string(runes[:maxRunes]) + "..."
}

// OrDefault returns str, or fallback when str is blank.
func (s *StringHelper) OrDefault(str, fallback string) string {
	if strings.TrimSpace(str) == "" {
		return fallback
	}

	return str
}
