package analytics

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCategory is used for expenses recorded without a category.
const DefaultCategory = "Other"

// NormalizeCategory trims, collapses inner whitespace and title-cases a
// category so that "  eating   OUT" and "Eating out" group together.
func NormalizeCategory(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return DefaultCategory
	}
	// Casers keep internal state, so one is built per call.
	return cases.Title(language.Und).String(s)
}
