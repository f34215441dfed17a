package utils

// SuggestionFilter drops values that were already emitted.
// Matching is exact: "Anna" and "anna" are different learned values.
type SuggestionFilter struct {
	seen map[string]bool
}

// NewSuggestionFilter creates a new filter that already excludes the given values
func NewSuggestionFilter(exclude ...string) *SuggestionFilter {
	seen := make(map[string]bool, len(exclude))
	for _, v := range exclude {
		seen[v] = true
	}
	return &SuggestionFilter{seen: seen}
}

// ShouldInclude checks if a value should be included in results (not a duplicate)
// Returns true if the value should be included, false if it's a duplicate
func (f *SuggestionFilter) ShouldInclude(value string) bool {
	if f.seen[value] {
		return false
	}
	f.seen[value] = true
	return true
}
