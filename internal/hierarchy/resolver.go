package hierarchy

import (
	"github.com/systmms/secretree/internal/config"
	"github.com/systmms/secretree/internal/logging"
)

// Resolver produces one fully merged configuration for a node by walking
// the tree upward and merging fragments child-wins.
type Resolver struct {
	logger *logging.Logger
}

// NewResolver creates a configuration resolver.
func NewResolver(logger *logging.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve walks from node to the root, merging each fragment it finds
// into the accumulator. A node with inheritance disabled terminates the
// walk immediately above itself: its own fields are used, nothing above
// is consulted. The second return is false when no fragment contributed
// anything anywhere on the walk; that is a configuration-missing
// condition, logged but not an error.
func (r *Resolver) Resolve(node Node) (config.Fragment, bool) {
	var merged config.Fragment

	for n := node; n != nil; n = n.Parent() {
		if frag := n.Fragment(); frag != nil {
			merged = config.Merge(merged, *frag)
		}
		if !n.InheritEnabled() {
			break
		}
	}

	if merged.IsBlank() {
		r.logger.Debug("no vault configuration found at %s or above", node.Path())
		return config.Fragment{}, false
	}
	return merged, true
}
