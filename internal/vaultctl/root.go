// Package vaultctl implements the operator command line for the vault:
// checking TOTP seeds, producing and checking master password hashes,
// opening stored tokens with the server's key and uploading entry logos.
package vaultctl

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/timex"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Test seams.
var (
	now        = timex.UTCNow
	getenv     = os.Getenv
	httpClient = &http.Client{Timeout: 30 * time.Second}
	newHasher  = func() *cryptox.PasswordHasher { return cryptox.NewPasswordHasher() }
)

// NewRootCmd builds the command tree. Every call returns fresh commands,
// so tests can run them in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vaultctl",
		Short: "Operator tooling for the password vault",
		Long: `vaultctl works with vault data outside the HTTP API.

Examples:
  vaultctl totp JBSWY3DPEHPK3PXP              # print the current code
  vaultctl check-seed 'otpauth://totp/x?secret=...'
  vaultctl hash-password                      # prompt and print an Argon2id hash
  vaultctl open-token gAAAAA...               # open a stored password (needs SECRET_KEY)
  vaultctl upload-logo --server http://localhost:8080 --secret S --id ID --file logo.png`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTotpCmd(),
		newCheckSeedCmd(),
		newHashPasswordCmd(),
		newVerifyPasswordCmd(),
		newOpenTokenCmd(),
		newUploadLogoCmd(),
	)
	return root
}

// Execute runs vaultctl with os.Args and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, color.RedString("✗")+" "+err.Error())
}

func printOK(w io.Writer, msg string) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+msg)
}

// envOr returns the flag value if set, otherwise the named environment
// variable.
func envOr(flagValue, name string) string {
	if flagValue != "" {
		return flagValue
	}
	return getenv(name)
}

var errMissing = errors.New("required value missing")
