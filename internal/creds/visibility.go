package creds

import (
	"context"
	"strings"

	"github.com/systmms/secretree/internal/hierarchy"
	"github.com/systmms/secretree/internal/logging"
)

// PermissionOracle answers whether a caller may view credentials at
// all. The host's own ACL machinery stands behind it; this module only
// consumes the yes/no answer.
type PermissionOracle interface {
	CanViewCredentials(caller hierarchy.Node) bool
}

// AllowAll grants every caller view permission. Used by the CLI, where
// the invoking user already owns the tree definition.
type AllowAll struct{}

func (AllowAll) CanViewCredentials(hierarchy.Node) bool { return true }

// Gate filters a store context's cached credential set by permission
// and by path containment before handing it to a caller.
type Gate struct {
	oracle PermissionOracle
	cache  *Cache
	logger *logging.Logger
}

// NewGate creates a visibility gate over a cache.
func NewGate(oracle PermissionOracle, cache *Cache, logger *logging.Logger) *Gate {
	return &Gate{oracle: oracle, cache: cache, logger: logger}
}

// List returns the credential descriptors of storeNode visible to
// caller, fetching or refreshing the store's cached set via list. An
// ineligible caller gets an empty result, never an error.
//
// Path containment is raw string-prefix containment: a caller at
// "/teamA2" is inside a store at "/teamA". Sibling paths sharing a
// prefix therefore false-positive; the behavior is pinned by tests and
// kept for compatibility.
func (g *Gate) List(ctx context.Context, caller, storeNode hierarchy.Node, list ListFunc) ([]Descriptor, error) {
	if !g.oracle.CanViewCredentials(caller) {
		g.logger.Debug("caller %s lacks credentials-view permission", caller.Path())
		return nil, nil
	}

	// The global store is always visible.
	if storeNode.Kind() == hierarchy.KindRoot {
		return g.cache.Get(ctx, storeNode.Path(), list)
	}

	storePath := storeNode.Path()
	if !strings.HasPrefix(caller.Path(), storePath) {
		g.logger.Debug("caller %s is outside store subtree %s", caller.Path(), storePath)
		return nil, nil
	}

	// A different context only sees the store through an unbroken
	// inheritance chain.
	if caller.Path() != storePath {
		for n := caller; n != nil && n.Path() != storePath; n = n.Parent() {
			if !n.InheritEnabled() {
				g.logger.Debug("inheritance chain from %s to %s broken at %s",
					caller.Path(), storePath, n.Path())
				return nil, nil
			}
		}
	}

	return g.cache.Get(ctx, storePath, list)
}
