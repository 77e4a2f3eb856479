package vaultctl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// readSecret prompts on stderr and reads one value without echo when stdin
// is a terminal. Piped input is read a line at a time, so scripts can feed
// several answers in order through the same reader.
func readSecret(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	w := cmd.ErrOrStderr()
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if _, err := fmt.Fprint(w, prompt); err != nil {
			return "", err
		}
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: %s", errMissing, strings.TrimSuffix(strings.TrimSpace(prompt), ":"))
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func stdinReader(cmd *cobra.Command) *bufio.Reader {
	return bufio.NewReader(cmd.InOrStdin())
}
