package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/systmms/secretree/internal/authn"
	"github.com/systmms/secretree/internal/credstore"
	"github.com/systmms/secretree/internal/hierarchy"
	"github.com/systmms/secretree/internal/logging"
	"github.com/systmms/secretree/internal/vault"
	"github.com/systmms/secretree/pkg/service"
)

// Runtime carries the parsed global flags into the subcommands. The
// logger is set by the root command's PersistentPreRun.
type Runtime struct {
	TreePath string
	Strategy string
	Audience string
	Issuer   string
	Version  string
	Logger   *logging.Logger
}

// BuildService loads the tree definition and assembles the service
// around the selected authentication strategy.
func (rt *Runtime) BuildService() (*service.Service, *hierarchy.Tree, error) {
	tree, err := hierarchy.LoadTree(rt.TreePath)
	if err != nil {
		return nil, nil, err
	}

	client := vault.NewClient(rt.Logger, vault.WithVersion(rt.Version))

	var (
		auth authn.Authenticator
		opts []service.Option
	)
	switch rt.Strategy {
	case "", "api-key":
		auth = authn.NewAPIKeyAuthenticator(credstore.NewKeyringStore(), client, rt.Logger)
	case "jwt":
		signer := authn.NewSigner()
		auth = authn.NewJWTAuthenticator(signer, client, authn.TokenSpec{
			Audience: rt.Audience,
			Issuer:   rt.Issuer,
		}, rt.Logger)
		opts = append(opts, service.WithSigner(signer))
	default:
		return nil, nil, fmt.Errorf("unknown authentication strategy %q (use api-key or jwt)", rt.Strategy)
	}

	opts = append(opts, service.WithDefaultNode(tree.Root))
	return service.New(auth, client, rt.Logger, opts...), tree, nil
}

// lookupNode finds a node by path, listing the known paths on a miss.
func lookupNode(tree *hierarchy.Tree, path string) (hierarchy.Node, error) {
	node, ok := tree.Lookup(path)
	if !ok {
		paths := tree.Paths()
		sort.Strings(paths)
		return nil, fmt.Errorf("no node %q in the tree definition (known paths: %s)",
			path, strings.Join(paths, ", "))
	}
	return node, nil
}
