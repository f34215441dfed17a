// Package profile keeps named sets of personal details and fills forms from
// them.
package profile

import (
	"errors"
	"fmt"

	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/validate"
)

// Profile is one named set of values, keyed by the field types it fills
type Profile struct {
	Name      string `yaml:"name" msgpack:"name"`
	FirstName string `yaml:"firstName,omitempty" msgpack:"firstName,omitempty"`
	LastName  string `yaml:"lastName,omitempty" msgpack:"lastName,omitempty"`
	Email     string `yaml:"email,omitempty" msgpack:"email,omitempty"`
	Phone     string `yaml:"phone,omitempty" msgpack:"phone,omitempty"`
	Address   string `yaml:"address,omitempty" msgpack:"address,omitempty"`
	City      string `yaml:"city,omitempty" msgpack:"city,omitempty"`
	Zip       string `yaml:"zip,omitempty" msgpack:"zip,omitempty"`
	Username  string `yaml:"username,omitempty" msgpack:"username,omitempty"`
}

// Value returns the profile's value for t, empty when it has none
func (p Profile) Value(t field.Type) string {
	switch t {
	case field.FirstName:
		return p.FirstName
	case field.LastName:
		return p.LastName
	case field.Email:
		return p.Email
	case field.Phone:
		return p.Phone
	case field.Address:
		return p.Address
	case field.City:
		return p.City
	case field.Zip:
		return p.Zip
	case field.Username:
		return p.Username
	}
	return ""
}

// Values returns the filled fields as a form snapshot
func (p Profile) Values() map[field.Type]string {
	out := make(map[field.Type]string)
	for _, t := range field.All {
		if v := p.Value(t); v != "" {
			out[t] = v
		}
	}
	return out
}

// InvalidFieldError reports a profile value its validator rejects
type InvalidFieldError struct {
	Type  field.Type
	Value string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Type, e.Value)
}

// Validate checks every filled field against set. Empty fields are fine;
// a profile needs a name.
func (p Profile) Validate(set validate.Set) error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("profile has no name"))
	}
	for _, t := range field.All {
		v := p.Value(t)
		if v == "" {
			continue
		}
		if !set.Valid(t, v) {
			errs = append(errs, &InvalidFieldError{Type: t, Value: v})
		}
	}
	return errors.Join(errs...)
}

// Assignment is one form element the profile can fill
type Assignment struct {
	Index int        `msgpack:"i"`
	Type  field.Type `msgpack:"t"`
	Value string     `msgpack:"v"`
}

// Fill classifies every descriptor and pairs it with the profile's value.
// Buttons, hidden inputs, checkboxes and the like are skipped, as are
// elements whose type the profile has no value for. Index refers to the
// position in descriptors.
func (p Profile) Fill(c *field.Classifier, descriptors []field.Descriptor) []Assignment {
	out := []Assignment{}
	for i, d := range descriptors {
		if !d.IsFillable() {
			continue
		}
		t, ok := c.Classify(d)
		if !ok {
			continue
		}
		v := p.Value(t)
		if v == "" {
			continue
		}
		out = append(out, Assignment{Index: i, Type: t, Value: v})
	}
	return out
}
