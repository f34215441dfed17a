package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWithCommas(t *testing.T) {
	cases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
		-12:      "-12",
	}
	for in, expected := range cases {
		assert.Equal(t, expected, FormatWithCommas(in))
	}
}

func TestIsSeparator(t *testing.T) {
	for _, r := range `$_-.:/\[]#@ ` + "\t\n" {
		assert.True(t, IsSeparator(r), "%q", r)
	}
	for _, r := range "aZ09ł" {
		assert.False(t, IsSeparator(r), "%q", r)
	}
}

func TestStripSpaces(t *testing.T) {
	assert.Equal(t, "+48123456789", StripSpaces(" +48 123 456\t789 "))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "A"}, Dedupe([]string{"b", "a", "b", "A", "a"}))
	assert.Empty(t, Dedupe(nil))
}

func TestSuggestionFilter(t *testing.T) {
	f := NewSuggestionFilter("x")
	assert.False(t, f.ShouldInclude("x"))
	assert.True(t, f.ShouldInclude("y"))
	assert.False(t, f.ShouldInclude("y"))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.bin")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0600))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should be renamed away")
}
