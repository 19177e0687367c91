package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rshade/attask-archive/internal/tui"
)

// ErrCancelled is returned when the user declines a confirmation prompt.
// main treats it as a clean exit.
var ErrCancelled = errors.New("operation cancelled")

// isInteractive reports whether stdin is a terminal. Tests replace it.
//
//nolint:gochecknoglobals // Overridden in tests to simulate a TTY.
var isInteractive = tui.IsTTY

// readSecret reads a line without echo. Tests replace it.
//
//nolint:gochecknoglobals // Overridden in tests to simulate terminal input.
var readSecret = tui.ReadSecret

// ErrNotInteractive is returned by PromptSecret when stdin is not a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// PromptResult contains the result of a user prompt interaction.
type PromptResult struct {
	// Accepted is true if the user typed "y" or "yes" (any case).
	Accepted bool
	// NonInteractive is true when no prompt was shown because stdin is not a terminal.
	NonInteractive bool
	// Cancelled is true if reading input failed.
	Cancelled bool
}

// Confirm writes question followed by " [y/N] " and reads one line from reader.
// It returns immediately with Accepted=false in non-interactive (non-TTY) environments.
// Pass the same *bufio.Reader to consecutive prompts so no input is lost to buffering.
//
// The prompt defaults to "No" when the user presses Enter without input.
func Confirm(writer io.Writer, reader io.Reader, question string) PromptResult {
	if !isInteractive() {
		return PromptResult{NonInteractive: true}
	}

	fmt.Fprintf(writer, "%s [y/N] ", question)

	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return PromptResult{Cancelled: true}
		}
		// EOF (Ctrl+D) declines unless a final unterminated line says otherwise.
		if line == "" {
			return PromptResult{}
		}
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return PromptResult{Accepted: true}
	default:
		return PromptResult{}
	}
}

// PromptSecret writes label and reads a value without echoing it.
func PromptSecret(writer io.Writer, label string) (string, error) {
	if !isInteractive() {
		return "", ErrNotInteractive
	}
	fmt.Fprintf(writer, "%s: ", label)
	secret, err := readSecret()
	fmt.Fprintln(writer)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(string(secret)), nil
}
