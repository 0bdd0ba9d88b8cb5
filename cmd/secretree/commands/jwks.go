package commands

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/secretree/internal/authn"
)

func NewJWKSCommand(rt *Runtime) *cobra.Command {
	var ensureKey bool

	cmd := &cobra.Command{
		Use:   "jwks",
		Short: "Print the token verification keys in JWKS format",
		Long: `Export the public half of the signing keys as a JWK Set.

The vault verifies self-issued tokens against this document. A fresh
process has no keys yet; --mint creates one before printing so the
output is immediately usable.

Examples:
  secretree jwks --mint`,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer := authn.NewSigner()

			if ensureKey {
				if _, err := signer.SelectKey(time.Now().Add(2 * time.Minute)); err != nil {
					return err
				}
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(signer.JWKS())
		},
	}

	cmd.Flags().BoolVar(&ensureKey, "mint", false, "Mint a signing key before printing")

	return cmd
}
