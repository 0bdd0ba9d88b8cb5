package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when opening a buffer after Destroy.
var ErrDestroyed = errors.New("secure buffer destroyed")

// Wipe overwrites b with zeros. Safe to call on nil or empty slices.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Buffer holds sensitive bytes encrypted at rest in memory. It wraps
// memguard.Enclave: the data is sealed with XSalsa20Poly1305, mlocked
// where the platform allows, and guarded against overflows.
type Buffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy() calls and prevents use
	// after destruction
	destroyed bool
}

// NewBuffer seals secret bytes into a protected buffer. memguard wipes
// the source slice as part of sealing, so the caller's copy is gone
// once this returns. Empty input yields an already-destroyed buffer;
// memguard cannot seal zero bytes.
func NewBuffer(data []byte) *Buffer {
	if len(data) == 0 {
		return &Buffer{destroyed: true}
	}
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the buffer and returns the plaintext in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer when done.
//
//	locked, err := buf.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	use(locked.Bytes())
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed || b.enclave == nil {
		return nil, ErrDestroyed
	}
	return b.enclave.Open()
}

// Destroy marks the buffer destroyed and drops the enclave. Idempotent.
// After Destroy, Open returns ErrDestroyed. For complete cleanup of
// all memguard data at process exit, call memguard.Purge() in main.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
