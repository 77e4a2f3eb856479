package vaultctl

import (
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/otpx"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTotpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totp <seed|otpauth-uri>",
		Short: "Print the current one-time code for a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := otpx.ValidateSecret(args[0])
			if err != nil {
				return err
			}
			code, err := otpx.CurrentCode(seed, now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				color.New(color.Bold).Sprint(code.Value),
				color.CyanString("(%ds left)", code.SecondsRemaining))
			return nil
		},
	}
}

func newCheckSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-seed <seed|otpauth-uri>",
		Short: "Check that a seed would be accepted for an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := otpx.ValidateSecret(args[0])
			if err != nil {
				return fmt.Errorf("seed rejected: %w", err)
			}
			printOK(cmd.OutOrStdout(), fmt.Sprintf("seed accepted (%d Base32 characters, %d-bit key)", len(seed), len(seed)*5))
			return nil
		},
	}
}
