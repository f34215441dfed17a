// Package validate holds the per-field shape checks a value must pass
// before the sequence model learns it.
package validate

import (
	"regexp"
	"unicode/utf8"

	"github.com/bastiangx/fillserve/internal/utils"
	"github.com/bastiangx/fillserve/pkg/field"
)

// Func reports whether value has the expected shape
type Func func(value string) bool

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe   = regexp.MustCompile(`^(\+48)?\d{9}$`)
	nameRe    = regexp.MustCompile(`^[\p{L}\p{M} ,.'-]+$`)
	addressRe = regexp.MustCompile(`^[\p{L}\p{M}0-9\s,.'/-]{3,}$`)
	cityRe    = regexp.MustCompile(`^[\p{L}\p{M}\s'-]+$`)
	zipRe     = regexp.MustCompile(`^\d{2}-\d{3}$`)
)

// Email accepts local@domain.tld with no whitespace
func Email(v string) bool {
	return emailRe.MatchString(v)
}

// Phone accepts a Polish 9-digit number, optionally prefixed with +48.
// Whitespace anywhere is ignored.
func Phone(v string) bool {
	return phoneRe.MatchString(utils.StripSpaces(v))
}

// Name accepts letters of any script plus space and , . ' -
func Name(v string) bool {
	return utf8.RuneCountInString(v) >= 2 && nameRe.MatchString(v)
}

// Address accepts letters, digits, whitespace and , . ' / -
func Address(v string) bool {
	return addressRe.MatchString(v)
}

// City accepts letters, whitespace, apostrophes and hyphens
func City(v string) bool {
	return utf8.RuneCountInString(v) >= 2 && cityRe.MatchString(v)
}

// Zip accepts the Polish postal format XX-XXX
func Zip(v string) bool {
	return zipRe.MatchString(v)
}

// Any accepts every value
func Any(string) bool {
	return true
}

// Set maps each field type to its validator
type Set map[field.Type]Func

// Default returns the validators used by the sequence model
func Default() Set {
	return Set{
		field.Email:     Email,
		field.Phone:     Phone,
		field.FirstName: Name,
		field.LastName:  Name,
		field.Address:   Address,
		field.City:      City,
		field.Zip:       Zip,
		field.Username:  Any,
		field.Other:     Any,
	}
}

// Valid runs the validator for t. Types without a validator accept everything.
func (s Set) Valid(t field.Type, value string) bool {
	fn, ok := s[t]
	if !ok || fn == nil {
		return true
	}
	return fn(value)
}
