package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bastiangx/fillserve/internal/utils"
)

// Options selects and configures a backend for Open
type Options struct {
	// Backend is memory, file or sqlite
	Backend string
	// Path is the directory for file and the database file for sqlite.
	// A sqlite path without an extension is treated as a directory and
	// gets fillserve.db inside it.
	Path    string
	Encrypt bool
	// Key seals values when Encrypt is set; nil generates and keeps one in
	// the backend
	Key []byte
}

// Open builds the configured store. The returned close func releases the
// backend and is never nil.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	var (
		st      Store
		closeFn = noop
	)
	switch strings.ToLower(opts.Backend) {
	case "memory", "":
		st = NewMemory()
	case "file":
		f, err := NewFile(opts.Path)
		if err != nil {
			return nil, noop, err
		}
		st = f
	case "sqlite":
		path := opts.Path
		if path != ":memory:" {
			if filepath.Ext(path) == "" {
				path = filepath.Join(path, "fillserve.db")
			}
			if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
				return nil, noop, fmt.Errorf("failed to create store dir: %w", err)
			}
		}
		db, err := NewSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		st, closeFn = db, db.Close
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", opts.Backend)
	}

	if !opts.Encrypt {
		return st, closeFn, nil
	}
	sealed, err := NewSealed(ctx, st, opts.Key)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	return sealed, closeFn, nil
}
