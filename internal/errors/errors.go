// Package errors defines the error taxonomy for vault resolution.
//
// Errors are plain structs so callers can branch on them with errors.As.
// The split that matters operationally: AuthnError drives the retry climb
// up the caller hierarchy, TransportError is always fatal, and
// InvalidSecretError is the single opaque wrapper shown to end callers.
package errors

import (
	"errors"
	"fmt"
)

// ConfigMissingError indicates that no configuration fragment was found
// anywhere on the walk from a node to the root. This is a normal condition
// for unconfigured subtrees, not a fault.
type ConfigMissingError struct {
	// Path is the tree path of the node the resolution started from.
	Path string
}

func (e ConfigMissingError) Error() string {
	return fmt.Sprintf("no vault configuration found at %s or above", e.Path)
}

// AuthnError indicates that the vault rejected the presented credentials,
// or that no local credential could be found to present. The retry
// resolver climbs the tree on this error; it is terminal only once the
// walk is exhausted.
type AuthnError struct {
	// Code is the HTTP status the vault answered with, or 0 when the
	// failure happened before any network call was made.
	Code int

	// Reason is a short human-readable cause. Never contains secret material.
	Reason string
}

func (e AuthnError) Error() string {
	if e.Code == 0 {
		return "authentication failed: " + e.Reason
	}
	return fmt.Sprintf("authentication failed (HTTP %d): %s", e.Code, e.Reason)
}

// TransportError indicates a non-success vault response that is not an
// authentication rejection, or a network/IO fault. Never retried.
type TransportError struct {
	// Op names the operation that failed: "authenticate", "fetch", "list".
	Op string

	// StatusCode is the HTTP status, or 0 for network-level faults.
	StatusCode int

	// Body is the vault's response body, surfaced verbatim.
	Body string

	// Err is the underlying network error, if any.
	Err error
}

func (e TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("vault %s failed: %v", e.Op, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("vault %s failed (HTTP %d): %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("vault %s failed (HTTP %d)", e.Op, e.StatusCode)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// SigningError indicates a key generation or token signing fault in the
// self-issued token strategy. Fatal to the authentication attempt.
type SigningError struct {
	Op  string
	Err error
}

func (e SigningError) Error() string {
	return fmt.Sprintf("token signing failed during %s: %v", e.Op, e.Err)
}

func (e SigningError) Unwrap() error {
	return e.Err
}

// InvalidSecretError is the terminal, caller-facing failure. It wraps the
// last underlying cause once the retry walk is exhausted or a fatal error
// occurred. The message carries the cause chain but never secret bytes.
type InvalidSecretError struct {
	// Identifier is the secret identifier that could not be retrieved.
	Identifier string

	Err error
}

func (e InvalidSecretError) Error() string {
	return fmt.Sprintf("cannot retrieve secret %q: %v", e.Identifier, e.Err)
}

func (e InvalidSecretError) Unwrap() error {
	return e.Err
}

// IsAuthn reports whether err is (or wraps) an AuthnError.
func IsAuthn(err error) bool {
	var ae AuthnError
	return errors.As(err, &ae)
}

// IsConfigMissing reports whether err is (or wraps) a ConfigMissingError.
func IsConfigMissing(err error) bool {
	var ce ConfigMissingError
	return errors.As(err, &ce)
}
