package field

import (
	"strings"
	"unicode"

	"github.com/bastiangx/fillserve/internal/utils"
)

// Tokens splits every identifying attribute of d on separator runes and
// returns the tokens in attribute order. The raw autocomplete value is
// appended verbatim at the end when present.
func Tokens(d Descriptor) []string {
	sources := []string{d.Name, d.ID}
	sources = append(sources, d.Classes...)
	sources = append(sources, d.TestID, d.AutomationID, d.Autocomplete, d.Placeholder, d.AriaLabel)

	var tokens []string
	for _, src := range sources {
		tokens = append(tokens, strings.FieldsFunc(src, utils.IsSeparator)...)
	}
	if ac := strings.TrimSpace(d.Autocomplete); ac != "" {
		tokens = append(tokens, ac)
	}
	return tokens
}

// splitCamel breaks a token at lower->upper transitions, at the end of an
// uppercase run followed by lowercase ("HTMLName" -> "HTML", "Name") and at
// letter/digit boundaries.
func splitCamel(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return []string{s}
	}

	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, curr := runes[i-1], runes[i]
		boundary := false
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(curr):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(curr) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			boundary = true
		case unicode.IsDigit(prev) != unicode.IsDigit(curr):
			boundary = true
		}
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}
