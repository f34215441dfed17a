package validate

import (
	"testing"

	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSet(t *testing.T) {
	s := Default()

	testCases := []struct {
		typ   field.Type
		value string
		valid bool
	}{
		{field.Email, "x@y.com", true},
		{field.Email, "anna.kowalska@poczta.onet.pl", true},
		{field.Email, "x@y", false},
		{field.Email, "x y@z.com", false},
		{field.Email, "a@b@c.com", false},

		{field.Phone, "123456789", true},
		{field.Phone, "+48123456789", true},
		{field.Phone, "+48 123 456 789", true},
		{field.Phone, "12345678", false},
		{field.Phone, "+44123456789", false},
		{field.Phone, "12345678a", false},

		{field.FirstName, "Anna", true},
		{field.FirstName, "Łucja", true},
		{field.FirstName, "Jean-Luc", true},
		{field.LastName, "O'Neil", true},
		{field.LastName, "Brzęczyszczykiewicz", true},
		{field.LastName, "R2D2", false},
		{field.FirstName, "A", false},

		{field.Address, "ul. Łąkowa 5/3", true},
		{field.Address, "12 Main St.", true},
		{field.Address, "ab", false},
		{field.Address, "Main St #5", false},

		{field.City, "Kraków", true},
		{field.City, "Bielsko-Biała", true},
		{field.City, "Warsaw 2", false},

		{field.Zip, "00-950", true},
		{field.Zip, "00950", false},
		{field.Zip, "00-95a", false},

		{field.Username, "anything goes", true},
		{field.Other, "!!!", true},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.valid, s.Valid(tc.typ, tc.value), "%s %q", tc.typ, tc.value)
	}
}

func TestValidUnknownType(t *testing.T) {
	assert.True(t, Set{}.Valid(field.Email, "not an email"))
	assert.True(t, Set{field.Email: nil}.Valid(field.Email, "not an email"))
}
