package utils

import "strings"

// NewNullString returns nil for blank input so optional columns are stored as NULL.
func NewNullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// TrimPtr trims an optional string, collapsing blanks to nil.
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return NewNullString(*s)
}
