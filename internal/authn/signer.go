package authn

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"strconv"
	"sync"
	"time"

	dserrors "github.com/systmms/secretree/internal/errors"
	"github.com/systmms/secretree/internal/metrics"
)

// defaultKeyLifetime bounds how long a signing key may be used and
// published. A key never signs a token whose expiry would outlive the
// key's own publication window.
const defaultKeyLifetime = 24 * time.Hour

// defaultKeyBits is the RSA modulus size for minted keys.
const defaultKeyBits = 2048

// SigningKey is one RSA key pair in the rotation queue.
type SigningKey struct {
	ID        string
	CreatedAt time.Time
	Private   *rsa.PrivateKey
}

// Signer manages the FIFO signing key queue. Keys are minted lazily,
// evicted lazily on every scan, and at most one key is current at any
// instant. Safe for concurrent use.
type Signer struct {
	mu       sync.Mutex
	keys     []*SigningKey
	lifetime time.Duration
	bits     int

	// Injection points for tests.
	now    func() time.Time
	genKey func(bits int) (*rsa.PrivateKey, error)
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithKeyLifetime overrides the key lifetime policy.
func WithKeyLifetime(d time.Duration) SignerOption {
	return func(s *Signer) { s.lifetime = d }
}

// WithKeyBits overrides the RSA modulus size.
func WithKeyBits(bits int) SignerOption {
	return func(s *Signer) { s.bits = bits }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// WithKeyGenerator overrides RSA key generation. Used in tests to avoid
// paying full keygen cost per case.
func WithKeyGenerator(gen func(bits int) (*rsa.PrivateKey, error)) SignerOption {
	return func(s *Signer) { s.genKey = gen }
}

// NewSigner creates a signing key manager with an empty queue.
func NewSigner(opts ...SignerOption) *Signer {
	s := &Signer{
		lifetime: defaultKeyLifetime,
		bits:     defaultKeyBits,
		now:      time.Now,
		genKey: func(bits int) (*rsa.PrivateKey, error) {
			return rsa.GenerateKey(rand.Reader, bits)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lifetime returns the configured key lifetime.
func (s *Signer) Lifetime() time.Duration {
	return s.lifetime
}

// SelectKey returns a key fit to sign a token expiring at expiry: the
// first queued key whose creation time plus lifetime is not before the
// requested expiry. Aged-out keys are evicted as a side effect; when no
// queued key qualifies a new one is minted and appended.
func (s *Signer) SelectKey(expiry time.Time) (*SigningKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	for _, key := range s.keys {
		if !key.CreatedAt.Add(s.lifetime).Before(expiry) {
			return key, nil
		}
	}

	private, err := s.genKey(s.bits)
	if err != nil {
		return nil, dserrors.SigningError{Op: "key generation", Err: err}
	}

	key := &SigningKey{
		ID:        strconv.FormatInt(now.UnixNano(), 16),
		CreatedAt: now,
		Private:   private,
	}
	s.keys = append(s.keys, key)
	metrics.RecordSigningKeyEvent("minted")
	return key, nil
}

// evictLocked drops every key whose age exceeds the lifetime. Caller
// holds s.mu.
func (s *Signer) evictLocked(now time.Time) {
	kept := s.keys[:0]
	for _, key := range s.keys {
		if now.Sub(key.CreatedAt) > s.lifetime {
			metrics.RecordSigningKeyEvent("evicted")
			continue
		}
		kept = append(kept, key)
	}
	s.keys = kept
}

// JWKS is the published set of verification keys.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is one public verification key in JWKS format.
type JWK struct {
	Kty    string   `json:"kty"`
	Alg    string   `json:"alg"`
	Kid    string   `json:"kid"`
	Use    string   `json:"use"`
	KeyOps []string `json:"key_ops"`
	N      string   `json:"n"`
	E      string   `json:"e"`
}

// JWKS exports the public halves of every non-expired queued key.
// Expired keys are evicted as a side effect of the scan.
func (s *Signer) JWKS() JWKS {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(s.now())

	out := JWKS{Keys: make([]JWK, 0, len(s.keys))}
	for _, key := range s.keys {
		pub := key.Private.Public().(*rsa.PublicKey)
		out.Keys = append(out.Keys, JWK{
			Kty:    "RSA",
			Alg:    "RS256",
			Kid:    key.ID,
			Use:    "sig",
			KeyOps: []string{"verify"},
			N:      base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:      base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return out
}
