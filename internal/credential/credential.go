// Package credential stores provider credentials at rest, encrypted with a
// single installation-wide secretbox key so a leaked storage backend does not
// hand over plaintext passwords or OAuth tokens.
package credential

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/daedal00/muse/internal/provider"
	"github.com/daedal00/muse/internal/storage"
	"golang.org/x/crypto/nacl/secretbox"
)

const collectionName = "credentials"

// keySize is the secretbox key length (32 bytes).
const keySize = 32

// Store persists provider.Credentials encrypted in a storage.Collection,
// keyed by provider tag.
type Store struct {
	collection storage.Collection
	key        [keySize]byte
}

// NewStore opens the credentials collection and derives the secretbox key
// from a base64-encoded 32-byte secret (config.CredentialKeyB64).
func NewStore(ctx context.Context, opener storage.Opener, keyB64 string) (*Store, error) {
	col, err := opener.Collection(ctx, collectionName)
	if err != nil {
		return nil, fmt.Errorf("credential: opening collection: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("credential: decoding key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("credential: key must be %d bytes, got %d", keySize, len(raw))
	}

	s := &Store{collection: col}
	copy(s.key[:], raw)
	return s, nil
}

// Get implements provider.CredentialStore.
func (s *Store) Get(ctx context.Context, tag provider.Tag) (*provider.Credentials, error) {
	sealed, err := s.collection.Get(ctx, string(tag))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("credential: reading %s: %w", tag, err)
	}

	plain, err := s.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("credential: decrypting %s: %w", tag, err)
	}

	var creds provider.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, fmt.Errorf("credential: decoding %s: %w", tag, err)
	}
	return &creds, nil
}

// Put implements provider.CredentialStore.
func (s *Store) Put(ctx context.Context, tag provider.Tag, creds provider.Credentials) error {
	plain, err := json.Marshal(&creds)
	if err != nil {
		return fmt.Errorf("credential: encoding %s: %w", tag, err)
	}

	sealed, err := s.seal(plain)
	if err != nil {
		return fmt.Errorf("credential: encrypting %s: %w", tag, err)
	}

	if err := s.collection.Put(ctx, string(tag), sealed); err != nil {
		return fmt.Errorf("credential: writing %s: %w", tag, err)
	}
	return nil
}

// Delete removes any stored credentials for tag. A missing entry is not an
// error.
func (s *Store) Delete(ctx context.Context, tag provider.Tag) error {
	if err := s.collection.Delete(ctx, string(tag)); err != nil {
		return fmt.Errorf("credential: deleting %s: %w", tag, err)
	}
	return nil
}

func (s *Store) seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, fmt.Errorf("ciphertext too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("decryption failed")
	}
	return plain, nil
}

var _ provider.CredentialStore = (*Store)(nil)
