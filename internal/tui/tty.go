package tui

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdin is an interactive terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadSecret reads a line from the stdin terminal without echoing it.
func ReadSecret() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}
