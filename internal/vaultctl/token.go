package vaultctl

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newOpenTokenCmd() *cobra.Command {
	var secretKey, kdfSalt string

	cmd := &cobra.Command{
		Use:   "open-token <token>",
		Short: "Open a stored password token with the server's master secret",
		Long: `Derives the server's storage key and opens one sealed token.

The master secret comes from --secret-key, then SECRET_KEY, then a prompt.
The salt comes from --kdf-salt, then KDF_SALT; when neither is set the
legacy build-wide salt is used, as the server does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := envOr(secretKey, "SECRET_KEY")
			if secret == "" {
				var err error
				secret, err = readSecret(cmd, stdinReader(cmd), "Master secret: ")
				if err != nil {
					return err
				}
			}

			salt := []byte(envOr(kdfSalt, "KDF_SALT"))
			if len(salt) == 0 {
				salt = cryptox.LegacyKDFSalt
			}

			key := cryptox.DeriveKey([]byte(secret), salt)
			defer key.Wipe()

			plain, sealedAt, err := cryptox.NewCipher(key).Inspect(args[0])
			switch {
			case errors.Is(err, common.ErrIntegrity):
				return fmt.Errorf("token does not verify under key %s: %w", key.Fingerprint(), err)
			case err != nil:
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, string(plain))
			fmt.Fprintln(cmd.ErrOrStderr(), color.CyanString("sealed at %s with key %s", sealedAt.UTC().Format(time.RFC3339), key.Fingerprint()))
			return nil
		},
	}

	cmd.Flags().StringVar(&secretKey, "secret-key", "", "master secret (default $SECRET_KEY)")
	cmd.Flags().StringVar(&kdfSalt, "kdf-salt", "", "key derivation salt (default $KDF_SALT)")
	return cmd
}
