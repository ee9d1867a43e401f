package models

import (
	"strconv"
	"strings"
)

// Filter selects cards by exact category and by a case-insensitive search
// over name, id and category. Empty fields match everything.
type Filter struct {
	Category string
	Query    string
}

// Matches reports whether c passes the filter
func (f Filter) Matches(c Card) bool {
	if f.Category != "" && c.Category != f.Category {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strconv.Itoa(c.ID), q) ||
		strings.Contains(strings.ToLower(c.Category), q)
}

// Apply returns the cards that match, in their original order
func (f Filter) Apply(cards []Card) []Card {
	out := []Card{}
	for _, c := range cards {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}
