package storage

import (
	"github.com/onegamerstory/homepanel/internal/kv"
)

const (
	bucketSecure = "secure"
	keyToken     = "token"
)

// CredentialStore holds the opaque API token between sessions. Desktop
// shells are expected to substitute a platform keychain implementation;
// this sqlite-backed store is the headless fallback.
type CredentialStore interface {
	Token() (string, error)
	Save(token string) error
	Delete() error
}

// KVCredentialStore persists the token in a sqlite KV bucket.
type KVCredentialStore struct {
	bucket kv.Bucket
}

// NewCredentialStore creates the fallback credential store.
func NewCredentialStore(m *kv.Manager) *KVCredentialStore {
	return &KVCredentialStore{bucket: m.Bucket(bucketSecure, true)}
}

// Token returns the stored token, or "" if none is stored.
func (s *KVCredentialStore) Token() (string, error) {
	v, err := s.bucket.Get(keyToken)
	if err != nil {
		return "", err
	}
	if token, ok := v.(string); ok {
		return token, nil
	}
	return "", nil
}

// Save stores the token.
func (s *KVCredentialStore) Save(token string) error {
	return s.bucket.Store(keyToken, token, nil)
}

// Delete removes the stored token.
func (s *KVCredentialStore) Delete() error {
	_, err := s.bucket.Delete(keyToken)
	return err
}
