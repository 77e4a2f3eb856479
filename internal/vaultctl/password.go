package vaultctl

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/fatih/color"
	"github.com/nbutton23/zxcvbn-go"
	"github.com/spf13/cobra"
)

func newHashPasswordCmd() *cobra.Command {
	var minScore int

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a master password with Argon2id",
		Long: `Reads a master password twice (two lines when piped), reports its
strength and prints the encoded Argon2id hash.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := stdinReader(cmd)
			pw, err := readSecret(cmd, in, "Master password: ")
			if err != nil {
				return err
			}
			again, err := readSecret(cmd, in, "Repeat password: ")
			if err != nil {
				return err
			}
			if pw != again {
				return errors.New("passwords do not match")
			}

			score := zxcvbn.PasswordStrength(pw, nil).Score
			if score < minScore {
				return fmt.Errorf("%w: score %d, need at least %d", common.ErrWeakPassword, score, minScore)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), color.CyanString("strength: %d/4", score))

			encoded, err := newHasher().Hash(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}

	cmd.Flags().IntVar(&minScore, "min-score", 0, "reject passwords below this zxcvbn score (0-4)")
	return cmd
}

func newVerifyPasswordCmd() *cobra.Command {
	var encoded string

	cmd := &cobra.Command{
		Use:   "verify-password",
		Short: "Check a password against an encoded Argon2id hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd, stdinReader(cmd), "Password: ")
			if err != nil {
				return err
			}
			if !newHasher().Verify(pw, encoded) {
				return common.ErrPasswordMismatch
			}
			printOK(cmd.OutOrStdout(), "password matches")
			return nil
		},
	}

	cmd.Flags().StringVar(&encoded, "hash", "", "encoded $argon2id$ hash")
	_ = cmd.MarkFlagRequired("hash")
	return cmd
}
