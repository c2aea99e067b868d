package model

import "strings"

// Tag names are compared case-insensitively: "Work" and "work" are one tag.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NormalizeTagName returns the key tags are unique by.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
