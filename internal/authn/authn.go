// Package authn turns a resolved vault configuration and a caller
// identity into a bearer token. Two strategies exist: APIKeyAuthenticator
// presents a locally stored login/secret pair, JWTAuthenticator presents
// a self-issued signed token.
package authn

import (
	"context"

	"github.com/systmms/secretree/internal/config"
	"github.com/systmms/secretree/internal/hierarchy"
)

// Context is the ephemeral input to one authentication attempt. It is
// built fresh per attempt and owned exclusively by that call.
type Context struct {
	// Config is the fully resolved configuration for the attempt.
	Config config.Fragment

	// Node is the tree position authentication is being performed for.
	Node hierarchy.Node
}

// Authenticator is the strategy interface. The returned bearer token is
// owned by the caller, consumed once, then wiped.
type Authenticator interface {
	// Name identifies the strategy: "api-key" or "jwt".
	Name() string

	// Authenticate exchanges the context for a bearer token. It fails
	// with errors.AuthnError on a vault-reported unauthorized response
	// (or when no local credential exists to present), and with
	// errors.TransportError on any other non-success outcome.
	Authenticate(ctx context.Context, ac Context) ([]byte, error)
}
