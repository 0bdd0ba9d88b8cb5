package credstore

import (
	"strings"

	"github.com/zalando/go-keyring"
)

// keyringService namespaces our entries in the OS keyring.
const keyringService = "secretree"

// KeyringStore reads credentials from the operating system keyring
// (Secret Service on Linux, Keychain on macOS, Credential Manager on
// Windows). Entries are stored under the credential identifier with the
// value "login\napikey".
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Lookup implements Store.
func (s *KeyringStore) Lookup(id string) (Credential, bool) {
	value, err := keyring.Get(keyringService, id)
	if err != nil {
		return Credential{}, false
	}

	login, apiKey, ok := strings.Cut(value, "\n")
	if !ok {
		return Credential{}, false
	}
	return Credential{Login: login, APIKey: []byte(apiKey)}, true
}

// Put stores a credential in the OS keyring.
func (s *KeyringStore) Put(id, login string, apiKey []byte) error {
	return keyring.Set(keyringService, id, login+"\n"+string(apiKey))
}

// Delete removes a credential from the OS keyring.
func (s *KeyringStore) Delete(id string) error {
	return keyring.Delete(keyringService, id)
}
