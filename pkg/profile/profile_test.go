package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/store"
	"github.com/bastiangx/fillserve/pkg/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anna = Profile{
	Name:      "home",
	FirstName: "Anna",
	LastName:  "Kowalska",
	Email:     "anna@example.com",
	Phone:     "+48 123 456 789",
	Zip:       "00-950",
}

func TestFillSkipsNonFillable(t *testing.T) {
	descriptors := []field.Descriptor{
		{Name: "email"},
		{Name: "email", InputType: "submit"},
		{Name: "phone", InputType: "hidden"},
		{ID: "ctl00$Content$tbFirstName"},
		{Name: "qwerty"},
		{Name: "city"},
		{Name: "newsletter", InputType: "checkbox"},
		{Name: "contact", InputType: "tel"},
	}

	got := anna.Fill(field.DefaultClassifier(), descriptors)
	assert.Equal(t, []Assignment{
		{Index: 0, Type: field.Email, Value: "anna@example.com"},
		{Index: 3, Type: field.FirstName, Value: "Anna"},
		{Index: 7, Type: field.Phone, Value: "+48 123 456 789"},
	}, got)
}

func TestFillEmpty(t *testing.T) {
	got := anna.Fill(field.DefaultClassifier(), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestValidate(t *testing.T) {
	require.NoError(t, anna.Validate(validate.Default()))

	bad := anna
	bad.Zip = "12345"
	bad.Email = "nope"
	err := bad.Validate(validate.Default())
	require.Error(t, err)

	var fieldErr *InvalidFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Contains(t, err.Error(), "invalid email")
	assert.Contains(t, err.Error(), "invalid zip")

	assert.Error(t, Profile{}.Validate(validate.Default()), "name is required")
}

func TestValues(t *testing.T) {
	v := anna.Values()
	assert.Len(t, v, 5)
	assert.Equal(t, "Anna", v[field.FirstName])
	_, ok := v[field.City]
	assert.False(t, ok)
}

func TestBookEditing(t *testing.T) {
	b := &Book{}
	b.Put(anna)
	b.Put(Profile{Name: "work", Email: "anna@corp.example"})
	b.Default = "work"

	p, err := b.Get("")
	require.NoError(t, err)
	assert.Equal(t, "anna@corp.example", p.Email)

	b.Put(Profile{Name: "work", Email: "a.k@corp.example"})
	assert.Equal(t, []string{"home", "work"}, b.Names())
	p, err = b.Get("work")
	require.NoError(t, err)
	assert.Equal(t, "a.k@corp.example", p.Email)

	assert.True(t, b.Remove("work"))
	assert.False(t, b.Remove("work"))
	assert.Empty(t, b.Default)

	_, err = b.Get("work")
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestBookFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")

	empty, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, empty.Profiles)

	b := &Book{Default: "home", Profiles: []Profile{anna}}
	require.NoError(t, b.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, b, loaded)
}

func TestBookStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSealed(ctx, store.NewMemory(), nil)
	require.NoError(t, err)

	empty, err := LoadStore(ctx, st)
	require.NoError(t, err)
	assert.Empty(t, empty.Profiles)

	b := &Book{Profiles: []Profile{anna}}
	require.NoError(t, b.SaveStore(ctx, st))

	loaded, err := LoadStore(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, b, loaded)
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("profiles: [unterminated"))
	assert.Error(t, err)
}

func TestSavers(t *testing.T) {
	ctx := context.Background()
	b := &Book{Default: "home", Profiles: []Profile{anna}}

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, FileSaver(path)(ctx, b))
	fromFile, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, b, fromFile)

	st := store.NewMemory()
	require.NoError(t, StoreSaver(st)(ctx, b))
	fromStore, err := LoadStore(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, b, fromStore)
}
