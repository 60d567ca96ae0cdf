package helpers

import "strings"

// NullIfEmpty returns nil for blank strings so optional unique columns are stored as NULL.
func NullIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, returning an empty string for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ContainsPattern wraps a search term for ILIKE matching.
func ContainsPattern(term string) string {
	return "%" + strings.TrimSpace(term) + "%"
}
