package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewListCommand(rt *Runtime) *cobra.Command {
	var (
		callerPath string
		storePath  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the credentials visible to a tree node",
		Long: `List the credential descriptors a caller node can see in a store
context.

The store defaults to the caller itself. Listings are cached per store
context for a short window; repeated calls inside the window are served
without touching the vault.

Examples:
  secretree list --path /teamA/build
  secretree list --path /teamA/build --store /teamA --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, tree, err := rt.BuildService()
			if err != nil {
				return err
			}

			caller, err := lookupNode(tree, callerPath)
			if err != nil {
				return err
			}

			if storePath == "" {
				storePath = callerPath
			}
			store, err := lookupNode(tree, storePath)
			if err != nil {
				return err
			}

			descriptors, err := svc.ListCredentials(cmd.Context(), caller, store)
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(descriptors)
			}

			if len(descriptors) == 0 {
				fmt.Println("No credentials visible.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IDENTIFIER\tKIND\tCONTEXT\tUSERNAME")
			for _, d := range descriptors {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Identifier, d.Kind, d.ContextPath, d.Username)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&callerPath, "path", "/", "Tree path of the caller node")
	cmd.Flags().StringVar(&storePath, "store", "", "Tree path of the store context (defaults to the caller)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	cmd.SilenceUsage = true

	return cmd
}
