package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/secretree/cmd/secretree/commands"
	"github.com/systmms/secretree/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		treePath string
		noColor  bool
		debug    bool
	)

	rt := &commands.Runtime{Version: version}

	rootCmd := &cobra.Command{
		Use:   "secretree",
		Short: "Hierarchical secret retrieval from a Conjur-compatible vault",
		Long: `secretree resolves vault configuration along a folder/job tree,
authenticates with the nearest working credentials and retrieves
secrets, climbing the tree when an authentication attempt is rejected.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			rt.Logger = logging.New(debug, noColor)
			rt.TreePath = treePath
		},
	}

	rootCmd.PersistentFlags().StringVar(&treePath, "tree", "secretree.yaml", "Tree definition file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rt.Strategy, "authn", "api-key", "Authentication strategy (api-key or jwt)")
	rootCmd.PersistentFlags().StringVar(&rt.Audience, "audience", "", "aud claim for self-issued tokens")
	rootCmd.PersistentFlags().StringVar(&rt.Issuer, "issuer", "", "iss claim for self-issued tokens")

	rootCmd.AddCommand(
		commands.NewResolveCommand(rt),
		commands.NewGetCommand(rt),
		commands.NewListCommand(rt),
		commands.NewLoginCommand(rt),
		commands.NewJWKSCommand(rt),
		commands.NewDoctorCommand(rt),
		commands.NewCompletionCommand(rt),
	)

	return rootCmd.Execute()
}
