package store

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeyName is the inner-store key holding a generated sealing key
const KeyName = "encryptionKey"

// Sealed encrypts values with XChaCha20-Poly1305 before handing them to
// the inner store. The storage key is bound as associated data, so a
// value copied under another key fails to open.
type Sealed struct {
	inner Store
	aead  cipher.AEAD
}

// NewSealed wraps inner. With a nil key, a key is loaded from inner under
// KeyName, or generated and saved there on first use.
func NewSealed(ctx context.Context, inner Store, key []byte) (*Sealed, error) {
	if key == nil {
		var err error
		key, err = loadOrCreateKey(ctx, inner)
		if err != nil {
			return nil, err
		}
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return &Sealed{inner: inner, aead: aead}, nil
}

func loadOrCreateKey(ctx context.Context, inner Store) ([]byte, error) {
	key, err := inner.Load(ctx, KeyName)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("%w: stored key has %d bytes", ErrCorrupt, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load sealing key: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate sealing key: %w", err)
	}
	if err := inner.Save(ctx, KeyName, key); err != nil {
		return nil, fmt.Errorf("failed to save sealing key: %w", err)
	}
	log.Debug("store: generated new sealing key")
	return key, nil
}

// Load implements Store
func (s *Sealed) Load(ctx context.Context, key string) ([]byte, error) {
	if key == KeyName {
		return nil, ErrInvalidKey
	}
	data, err := s.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	ns := s.aead.NonceSize()
	if len(data) < ns+s.aead.Overhead() {
		return nil, fmt.Errorf("%w: %s is too short", ErrCorrupt, key)
	}
	plain, err := s.aead.Open(nil, data[:ns], data[ns:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return plain, nil
}

// Save implements Store
func (s *Sealed) Save(ctx context.Context, key string, data []byte) error {
	if key == KeyName {
		return ErrInvalidKey
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(data)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.inner.Save(ctx, key, s.aead.Seal(nonce, nonce, data, []byte(key)))
}
