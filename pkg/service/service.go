// Package service is the embedding surface: one Service wires the
// configuration resolver, the authentication strategy, the vault client
// and the credential visibility machinery together behind a small API.
package service

import (
	"context"
	"errors"

	"github.com/systmms/secretree/internal/authn"
	"github.com/systmms/secretree/internal/config"
	"github.com/systmms/secretree/internal/creds"
	"github.com/systmms/secretree/internal/hierarchy"
	"github.com/systmms/secretree/internal/logging"
	"github.com/systmms/secretree/internal/resolve"
	"github.com/systmms/secretree/internal/secure"
	"github.com/systmms/secretree/internal/vault"
)

// ErrNoSigner is returned by JWKS when the service was built around the
// shared-secret strategy and has no signing keys to publish.
var ErrNoSigner = errors.New("service has no token signer")

// Service is the composed facade. Construct it once and share it; all
// methods are safe for concurrent use.
type Service struct {
	configs *hierarchy.Resolver
	secrets *resolve.Resolver
	auth    authn.Authenticator
	client  *vault.Client
	signer  *authn.Signer
	cache   *creds.Cache
	gate    *creds.Gate
	logger  *logging.Logger

	oracle      creds.PermissionOracle
	defaultNode hierarchy.Node
}

// Option configures a Service.
type Option func(*Service)

// WithSigner attaches the signing key manager, enabling JWKS export.
// Required when the authenticator is the self-issued-token strategy.
func WithSigner(s *authn.Signer) Option {
	return func(svc *Service) { svc.signer = s }
}

// WithOracle replaces the permission oracle consulted before listing
// credentials. Defaults to allowing every caller.
func WithOracle(o creds.PermissionOracle) Option {
	return func(svc *Service) { svc.oracle = o }
}

// WithCache replaces the credential cache, e.g. to shorten the TTL.
func WithCache(c *creds.Cache) Option {
	return func(svc *Service) { svc.cache = c }
}

// WithDefaultNode sets the context used when GetSecret is called with a
// nil node.
func WithDefaultNode(n hierarchy.Node) Option {
	return func(svc *Service) { svc.defaultNode = n }
}

// New assembles a Service around one authentication strategy and one
// vault client.
func New(auth authn.Authenticator, client *vault.Client, logger *logging.Logger, opts ...Option) *Service {
	svc := &Service{
		configs: hierarchy.NewResolver(logger),
		auth:    auth,
		client:  client,
		cache:   creds.NewCache(),
		logger:  logger,
		oracle:  creds.AllowAll{},
	}
	for _, opt := range opts {
		opt(svc)
	}

	var resolveOpts []resolve.Option
	if svc.defaultNode != nil {
		resolveOpts = append(resolveOpts, resolve.WithDefaultNode(svc.defaultNode))
	}
	svc.secrets = resolve.New(svc.configs, auth, client, logger, resolveOpts...)
	svc.gate = creds.NewGate(svc.oracle, svc.cache, logger)
	return svc
}

// ResolveConfig returns the merged vault configuration effective at a
// node. The second return is false when nothing on the walk contributed
// configuration.
func (s *Service) ResolveConfig(node hierarchy.Node) (config.Fragment, bool) {
	return s.configs.Resolve(node)
}

// IsInheritanceOn reports whether the node consults configuration and
// credentials from above itself.
func (s *Service) IsInheritanceOn(node hierarchy.Node) bool {
	return node.InheritEnabled()
}

// GetSecret retrieves one secret for a caller context, climbing the
// hierarchy on authentication failure. The returned secret is sealed;
// the caller must Destroy it.
func (s *Service) GetSecret(ctx context.Context, node hierarchy.Node, identifier string) (*resolve.Secret, error) {
	return s.secrets.GetSecret(ctx, node, identifier)
}

// ListCredentials returns the credential descriptors of storeNode
// visible to caller. The store's listing is served from the TTL cache;
// a cache miss authenticates as the store context and performs the bulk
// vault listing.
func (s *Service) ListCredentials(ctx context.Context, caller, storeNode hierarchy.Node) ([]creds.Descriptor, error) {
	return s.gate.List(ctx, caller, storeNode, func(ctx context.Context) ([]creds.Descriptor, error) {
		return s.listForStore(ctx, storeNode)
	})
}

// JWKS exports the public half of every live signing key.
func (s *Service) JWKS() (authn.JWKS, error) {
	if s.signer == nil {
		return authn.JWKS{}, ErrNoSigner
	}
	return s.signer.JWKS(), nil
}

func (s *Service) listForStore(ctx context.Context, storeNode hierarchy.Node) ([]creds.Descriptor, error) {
	cfg, ok := s.configs.Resolve(storeNode)
	if !ok {
		// A store context with no configuration simply has no
		// credentials to offer.
		s.logger.Debug("no configuration at %s, listing nothing", storeNode.Path())
		return nil, nil
	}

	token, err := s.auth.Authenticate(ctx, authn.Context{Config: cfg, Node: storeNode})
	if err != nil {
		return nil, err
	}
	defer secure.Wipe(token)

	resources, err := s.client.ListResources(ctx, cfg, token)
	if err != nil {
		return nil, err
	}

	descriptors := make([]creds.Descriptor, 0, len(resources))
	for _, res := range resources {
		descriptors = append(descriptors, creds.DescriptorsFromResource(res, storeNode.Path())...)
	}
	return descriptors, nil
}
