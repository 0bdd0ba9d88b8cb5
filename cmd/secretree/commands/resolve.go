package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/secretree/internal/hierarchy"
)

func NewResolveCommand(rt *Runtime) *cobra.Command {
	var (
		nodePath   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the merged vault configuration for a tree node",
		Long: `Resolve the vault configuration effective at a tree node.

The node's own configuration wins over its ancestors'; a node with
inheritance disabled uses only its own fields.

Examples:
  secretree resolve --path /teamA
  secretree resolve --path /teamA/build --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := hierarchy.LoadTree(rt.TreePath)
			if err != nil {
				return err
			}

			node, err := lookupNode(tree, nodePath)
			if err != nil {
				return err
			}

			resolver := hierarchy.NewResolver(rt.Logger)
			cfg, ok := resolver.Resolve(node)
			if !ok {
				return fmt.Errorf("no vault configuration at %s or above", node.Path())
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(cfg)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "appliance URL:\t%s\n", cfg.ApplianceURL)
			fmt.Fprintf(w, "account:\t%s\n", cfg.Account)
			fmt.Fprintf(w, "authn path:\t%s\n", cfg.AuthnPath)
			fmt.Fprintf(w, "credential:\t%s\n", cfg.CredentialID)
			fmt.Fprintf(w, "certificate:\t%s\n", cfg.CertCredentialID)
			fmt.Fprintf(w, "inheritance:\t%t\n", node.InheritEnabled())
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&nodePath, "path", "/", "Tree path of the node to resolve")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
