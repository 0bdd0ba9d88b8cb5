package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func NewGetCommand(rt *Runtime) *cobra.Command {
	var (
		nodePath   string
		identifier string
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Retrieve a single secret value",
		Long: `Retrieve one secret from the vault as the given tree node.

On an authentication failure the retrieval climbs the tree and retries
with an ancestor's configuration. Only the raw value is printed, making
the command suitable for scripting.

Examples:
  secretree get --path /teamA/build --id db/password

  # Use in scripts
  export DB_PASSWORD=$(secretree get --path /teamA/build --id db/password)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, tree, err := rt.BuildService()
			if err != nil {
				return err
			}

			node, err := lookupNode(tree, nodePath)
			if err != nil {
				return err
			}

			secret, err := svc.GetSecret(cmd.Context(), node, identifier)
			if err != nil {
				return err
			}
			defer secret.Destroy()

			if secret.Context.Path() != node.Path() {
				rt.Logger.Debug("resolved via %s after climbing", secret.Context.Path())
			}

			view, err := secret.Value.Open()
			if err != nil {
				return err
			}
			defer view.Destroy()

			_, err = os.Stdout.Write(view.Bytes())
			return err
		},
	}

	cmd.Flags().StringVar(&nodePath, "path", "/", "Tree path of the requesting node")
	cmd.Flags().StringVar(&identifier, "id", "", "Secret identifier within the vault account (required)")

	_ = cmd.MarkFlagRequired("id")

	cmd.SilenceUsage = true

	return cmd
}
