package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/secretree/internal/credstore"
	"github.com/systmms/secretree/internal/secure"
)

func NewLoginCommand(rt *Runtime) *cobra.Command {
	var (
		credentialID string
		login        string
		remove       bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a vault credential in the OS keyring",
		Long: `Store the login and API key a tree node's configuration refers to.

The API key is read from stdin so it never appears in shell history or
the process table. Use --remove to delete a stored credential.

Examples:
  # Store a credential (the key is prompted on stdin)
  secretree login --credential vault-ci --login host/ci

  # Pipe the key in
  secretree login --credential vault-ci --login host/ci < apikey.txt

  # Remove a stored credential
  secretree login --credential vault-ci --remove`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := credstore.NewKeyringStore()

			if remove {
				if err := store.Delete(credentialID); err != nil {
					return fmt.Errorf("failed to remove credential %q: %w", credentialID, err)
				}
				rt.Logger.Info("Removed credential %s", credentialID)
				return nil
			}

			if login == "" {
				return fmt.Errorf("a login is required when storing a credential (use --login)")
			}

			apiKey, err := readAPIKey()
			if err != nil {
				return err
			}
			defer secure.Wipe(apiKey)

			if err := store.Put(credentialID, login, apiKey); err != nil {
				return fmt.Errorf("failed to store credential %q: %w", credentialID, err)
			}

			rt.Logger.Info("Stored credential %s for login %s", credentialID, login)
			return nil
		},
	}

	cmd.Flags().StringVar(&credentialID, "credential", "", "Credential identifier the tree configuration refers to (required)")
	cmd.Flags().StringVar(&login, "login", "", "Vault login the API key belongs to")
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the stored credential instead of storing one")

	_ = cmd.MarkFlagRequired("credential")

	cmd.SilenceUsage = true

	return cmd
}

func readAPIKey() ([]byte, error) {
	if fi, err := os.Stdin.Stat(); err == nil && (fi.Mode()&os.ModeCharDevice) != 0 {
		fmt.Fprint(os.Stderr, "API key: ")
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("failed to read API key from stdin: %w", err)
	}

	key := strings.TrimRight(line, "\r\n")
	if key == "" {
		return nil, fmt.Errorf("empty API key")
	}
	return []byte(key), nil
}
