// Package field classifies scraped form elements into semantic field types.
//
// Markup across real sites is inconsistent: localized labels, ASP.NET
// control ids such as "ctl00$Content$tbFirstName", run-together camelCase
// identifiers. The classifier tokenizes every identifying attribute of an
// element and scores the tokens (and joins and camelCase pieces of them)
// against a small vocabulary per field type with a fuzzy scorer.
package field

import "strings"

// Type is the semantic category of a form field
type Type string

const (
	Email     Type = "email"
	FirstName Type = "firstName"
	LastName  Type = "lastName"
	Phone     Type = "phone"
	Address   Type = "address"
	City      Type = "city"
	Zip       Type = "zip"
	Username  Type = "username"
	Other     Type = "other"
)

// All lists every field type in canonical order
var All = []Type{Email, FirstName, LastName, Phone, Address, City, Zip, Username, Other}

// Parse resolves a field type from its wire spelling, case-insensitively.
func Parse(s string) (Type, bool) {
	for _, t := range All {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	// older saved data keyed zip values as "zipCode"
	if strings.EqualFold(s, "zipCode") {
		return Zip, true
	}
	return "", false
}

func (t Type) String() string {
	return string(t)
}

// Descriptor holds the identifying strings scraped from a page element.
type Descriptor struct {
	Name         string   `msgpack:"name,omitempty" yaml:"name,omitempty"`
	ID           string   `msgpack:"id,omitempty" yaml:"id,omitempty"`
	Classes      []string `msgpack:"class,omitempty" yaml:"class,omitempty"`
	TestID       string   `msgpack:"test_id,omitempty" yaml:"test_id,omitempty"`
	AutomationID string   `msgpack:"automation_id,omitempty" yaml:"automation_id,omitempty"`
	Autocomplete string   `msgpack:"autocomplete,omitempty" yaml:"autocomplete,omitempty"`
	InputType    string   `msgpack:"type,omitempty" yaml:"type,omitempty"`
	Placeholder  string   `msgpack:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	AriaLabel    string   `msgpack:"aria_label,omitempty" yaml:"aria_label,omitempty"`
}

// nonFillable input types never receive a value
var nonFillable = map[string]bool{
	"submit":   true,
	"reset":    true,
	"button":   true,
	"image":    true,
	"file":     true,
	"hidden":   true,
	"radio":    true,
	"checkbox": true,
}

// IsFillable reports whether an element of this input type can hold a typed value.
func (d Descriptor) IsFillable() bool {
	return !nonFillable[strings.ToLower(strings.TrimSpace(d.InputType))]
}
