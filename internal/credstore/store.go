// Package credstore holds the locally stored login/secret pairs that the
// shared-secret authentication strategy presents to the vault. Two
// implementations: an in-memory store fed from configuration, and one
// backed by the operating system keyring.
package credstore

import "github.com/systmms/secretree/internal/secure"

// Credential is one stored login with its API key. APIKey is returned as
// a fresh copy; the caller owns it and must wipe it after use.
type Credential struct {
	Login  string
	APIKey []byte
}

// Store looks up credentials by identifier.
type Store interface {
	// Lookup returns the credential stored under id. The boolean is
	// false when nothing is stored under that identifier.
	Lookup(id string) (Credential, bool)
}

// MemoryStore keeps credentials sealed in memory. Keys are held in
// secure buffers and only decrypted for the duration of a Lookup copy.
type MemoryStore struct {
	entries map[string]memoryEntry
}

type memoryEntry struct {
	login string
	key   *secure.Buffer
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Put seals a credential under id. The apiKey slice is wiped by sealing.
func (s *MemoryStore) Put(id, login string, apiKey []byte) {
	s.entries[id] = memoryEntry{login: login, key: secure.NewBuffer(apiKey)}
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(id string) (Credential, bool) {
	e, ok := s.entries[id]
	if !ok {
		return Credential{}, false
	}

	locked, err := e.key.Open()
	if err != nil {
		return Credential{}, false
	}
	defer locked.Destroy()

	out := make([]byte, len(locked.Bytes()))
	copy(out, locked.Bytes())
	return Credential{Login: e.login, APIKey: out}, true
}
