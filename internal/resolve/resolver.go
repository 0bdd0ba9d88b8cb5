// Package resolve drives the authenticate-and-fetch retry loop that
// climbs the caller hierarchy on authentication failure.
package resolve

import (
	"context"

	"github.com/systmms/secretree/internal/authn"
	dserrors "github.com/systmms/secretree/internal/errors"
	"github.com/systmms/secretree/internal/hierarchy"
	"github.com/systmms/secretree/internal/logging"
	"github.com/systmms/secretree/internal/metrics"
	"github.com/systmms/secretree/internal/secure"
	"github.com/systmms/secretree/internal/vault"
)

// Secret is a retrieved secret value sealed in protected memory,
// together with the tree context whose credentials retrieved it.
type Secret struct {
	// Value holds the secret bytes encrypted at rest. Callers open it,
	// use the plaintext, and destroy the locked view immediately.
	Value *secure.Buffer

	// Context is the node whose configuration ultimately succeeded.
	// After a climb this differs from the node the request started at.
	Context hierarchy.Node
}

// Destroy releases the sealed value. Idempotent.
func (s *Secret) Destroy() {
	if s != nil && s.Value != nil {
		s.Value.Destroy()
	}
}

// Resolver orchestrates configuration resolution, authentication and
// secret fetching with hierarchical fallback.
type Resolver struct {
	configs     *hierarchy.Resolver
	auth        authn.Authenticator
	client      *vault.Client
	defaultNode hierarchy.Node
	logger      *logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultNode sets the node substituted when GetSecret is called
// with a nil start node.
func WithDefaultNode(n hierarchy.Node) Option {
	return func(r *Resolver) { r.defaultNode = n }
}

// New creates a retry resolver.
func New(configs *hierarchy.Resolver, auth authn.Authenticator, client *vault.Client, logger *logging.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		configs: configs,
		auth:    auth,
		client:  client,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetSecret retrieves one secret for a caller context. On an
// authentication failure the walk climbs: one level at a time while the
// failing node has inheritance enabled, straight to the root when it
// does not. Transport failures are fatal immediately. The walk is
// exhausted once authentication fails at the root itself; the last
// cause is then wrapped in InvalidSecretError.
func (r *Resolver) GetSecret(ctx context.Context, start hierarchy.Node, identifier string) (*Secret, error) {
	node := start
	if node == nil {
		node = r.defaultNode
	}
	if node == nil {
		return nil, dserrors.InvalidSecretError{
			Identifier: identifier,
			Err:        dserrors.ConfigMissingError{Path: "/"},
		}
	}

	for {
		sealed, err := r.attempt(ctx, node, identifier)
		if err == nil {
			return &Secret{Value: sealed, Context: node}, nil
		}

		// Configuration-missing is climbable alongside authentication
		// rejection: an ancestor cut off by an inherit=false node may
		// still carry a working configuration.
		if !dserrors.IsAuthn(err) && !dserrors.IsConfigMissing(err) {
			return nil, dserrors.InvalidSecretError{Identifier: identifier, Err: err}
		}

		if node.Parent() == nil {
			r.logger.Debug("retry walk exhausted at root for %s", logging.Secret(identifier))
			return nil, dserrors.InvalidSecretError{Identifier: identifier, Err: err}
		}

		if node.InheritEnabled() {
			metrics.RecordRetryClimb("parent")
			r.logger.Debug("authentication failed at %s, retrying one level up", node.Path())
			node = node.Parent()
		} else {
			metrics.RecordRetryClimb("root")
			r.logger.Debug("authentication failed at %s with inheritance off, retrying at root", node.Path())
			node = hierarchy.RootOf(node)
		}
	}
}

// attempt performs one resolve-authenticate-fetch sequence at a node.
// The bearer token and the raw secret bytes are wiped on every exit
// path; the secret survives only sealed inside the returned buffer.
func (r *Resolver) attempt(ctx context.Context, node hierarchy.Node, identifier string) (*secure.Buffer, error) {
	cfg, ok := r.configs.Resolve(node)
	if !ok {
		return nil, dserrors.ConfigMissingError{Path: node.Path()}
	}

	token, err := r.auth.Authenticate(ctx, authn.Context{Config: cfg, Node: node})
	if err != nil {
		return nil, err
	}
	defer secure.Wipe(token)

	body, err := r.client.FetchSecret(ctx, cfg, token, identifier)
	if err != nil {
		return nil, err
	}

	// Sealing wipes body.
	return secure.NewBuffer(body), nil
}
