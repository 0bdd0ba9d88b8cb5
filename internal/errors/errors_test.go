package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthnErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"authentication failed: no stored credential for id c1",
		AuthnError{Reason: "no stored credential for id c1"}.Error())
	assert.Equal(t,
		"authentication failed (HTTP 401): Unauthorized",
		AuthnError{Code: 401, Reason: "Unauthorized"}.Error())
}

func TestTransportErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      TransportError
		expected string
	}{
		{
			name:     "network fault",
			err:      TransportError{Op: "fetch", Err: errors.New("connection refused")},
			expected: "vault fetch failed: connection refused",
		},
		{
			name:     "http with body",
			err:      TransportError{Op: "list", StatusCode: 500, Body: "boom"},
			expected: "vault list failed (HTTP 500): boom",
		},
		{
			name:     "http without body",
			err:      TransportError{Op: "authenticate", StatusCode: 502},
			expected: "vault authenticate failed (HTTP 502)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnwrapChain(t *testing.T) {
	t.Parallel()

	root := AuthnError{Code: 401, Reason: "Unauthorized"}
	wrapped := InvalidSecretError{Identifier: "db/password", Err: root}

	assert.True(t, IsAuthn(wrapped))
	assert.False(t, IsConfigMissing(wrapped))

	var ae AuthnError
	assert.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, 401, ae.Code)
}

func TestIsAuthnThroughFmtWrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("context: %w", AuthnError{Code: 403, Reason: "Forbidden"})
	assert.True(t, IsAuthn(err))
	assert.False(t, IsAuthn(errors.New("plain")))
	assert.False(t, IsAuthn(nil))
}

func TestConfigMissing(t *testing.T) {
	t.Parallel()

	err := ConfigMissingError{Path: "/teamA/build"}
	assert.Equal(t, "no vault configuration found at /teamA/build or above", err.Error())
	assert.True(t, IsConfigMissing(fmt.Errorf("resolve: %w", err)))
}
