package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// isInteractive reports whether the command reads from a terminal outside CI.
func isInteractive(command *cli.Command) bool {
	if os.Getenv("CI") != "" {
		return false
	}
	f, ok := stdin(command).(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// promptConfirm asks on w whether to send action and reads the answer from r.
// Only y or yes, in any case, confirms.
func promptConfirm(r io.Reader, w io.Writer, action string) error {
	if _, err := fmt.Fprintf(w, "Send action %q? [y/N]: ", action); err != nil {
		return fmt.Errorf("failed to prompt: %w", err)
	}

	answer, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return fmt.Errorf("action %q was not confirmed", action)
	}
}
