package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/bastiangx/fillserve/internal/utils"
	"github.com/bastiangx/fillserve/pkg/store"
	"gopkg.in/yaml.v3"
)

// StoreKey is where a Book lives when kept in a store
const StoreKey = "profiles"

// ErrNoProfile is returned when a named profile does not exist
var ErrNoProfile = errors.New("profile: not found")

// Book is the set of saved profiles
type Book struct {
	Default  string    `yaml:"default,omitempty"`
	Profiles []Profile `yaml:"profiles"`
}

// Parse decodes a YAML book
func Parse(data []byte) (*Book, error) {
	var b Book
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	return &b, nil
}

// Marshal encodes the book as YAML
func (b *Book) Marshal() ([]byte, error) {
	return yaml.Marshal(b)
}

// LoadFile reads a YAML book; a missing file is an empty book
func LoadFile(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Book{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// SaveFile writes the book as YAML, readable only by the owner
func (b *Book) SaveFile(path string) error {
	data, err := b.Marshal()
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0600)
}

// LoadStore reads the book kept under StoreKey; nothing stored is an empty book
func LoadStore(ctx context.Context, st store.Store) (*Book, error) {
	data, err := st.Load(ctx, StoreKey)
	if errors.Is(err, store.ErrNotFound) {
		return &Book{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// SaveStore writes the book under StoreKey
func (b *Book) SaveStore(ctx context.Context, st store.Store) error {
	data, err := b.Marshal()
	if err != nil {
		return err
	}
	return st.Save(ctx, StoreKey, data)
}

// Saver persists a book after it changes
type Saver func(ctx context.Context, b *Book) error

// FileSaver writes the book to a YAML file at path
func FileSaver(path string) Saver {
	return func(_ context.Context, b *Book) error {
		return b.SaveFile(path)
	}
}

// StoreSaver writes the book under StoreKey in st
func StoreSaver(st store.Store) Saver {
	return func(ctx context.Context, b *Book) error {
		return b.SaveStore(ctx, st)
	}
}

// Get returns the named profile. An empty name selects the default profile.
func (b *Book) Get(name string) (Profile, error) {
	if name == "" {
		name = b.Default
	}
	i := b.index(name)
	if i < 0 {
		return Profile{}, fmt.Errorf("%w: %q", ErrNoProfile, name)
	}
	return b.Profiles[i], nil
}

// Put adds p or replaces the profile with the same name
func (b *Book) Put(p Profile) {
	if i := b.index(p.Name); i >= 0 {
		b.Profiles[i] = p
		return
	}
	b.Profiles = append(b.Profiles, p)
}

// Remove deletes the named profile and reports whether it existed
func (b *Book) Remove(name string) bool {
	i := b.index(name)
	if i < 0 {
		return false
	}
	b.Profiles = slices.Delete(b.Profiles, i, i+1)
	if b.Default == name {
		b.Default = ""
	}
	return true
}

// Names lists profile names in book order
func (b *Book) Names() []string {
	names := make([]string, 0, len(b.Profiles))
	for _, p := range b.Profiles {
		names = append(names, p.Name)
	}
	return names
}

func (b *Book) index(name string) int {
	return slices.IndexFunc(b.Profiles, func(p Profile) bool { return p.Name == name })
}
