package utils

import (
	"strconv"
	"strings"
	"unicode"
)

// IsSeparator checks if a rune splits identifier tokens in scraped markup
func IsSeparator(r rune) bool {
	switch r {
	case '$', '_', '-', '.', ':', '/', '\\', '[', ']', '#', '@':
		return true
	}
	return unicode.IsSpace(r)
}

// StripSpaces removes every whitespace rune from s
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// FormatWithCommas renders n with thousands separators (1234567 -> 1,234,567)
func FormatWithCommas(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}
