/*
Package store implements the key-value collaborators that hold learned
form data between sessions.

Every backend speaks raw bytes; encoding the model state is the caller's
job. Backends are safe for concurrent use and take a context so that
timeouts and cancellation belong to the storage layer, not the model.

	st, err := store.NewSQLite("state.db")
	sealed, err := store.NewSealed(ctx, st, nil)
	err = sealed.Save(ctx, "trainingData", data)

Sealed wraps any backend with authenticated encryption, mirroring the way the
browser extension kept its storage encrypted at rest.
*/
package store

import (
	"context"
	"errors"
	"regexp"
)

var (
	// ErrNotFound is returned by Load when nothing is stored under the key
	ErrNotFound = errors.New("store: key not found")
	// ErrCorrupt is returned when stored bytes cannot be opened
	ErrCorrupt = errors.New("store: corrupt value")
	// ErrInvalidKey rejects keys that are empty or unsafe as file names
	ErrInvalidKey = errors.New("store: invalid key")
)

// Store loads and saves opaque values by key
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

func checkKey(key string) error {
	if !keyRe.MatchString(key) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
