package utils

// Dedupe returns values without repeats, keeping first-seen order
func Dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	f := NewSuggestionFilter()
	for _, v := range values {
		if f.ShouldInclude(v) {
			out = append(out, v)
		}
	}
	return out
}
