package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rshade/attask-archive/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // Set by the linker.

func main() {
	err := run()
	if err != nil && !errors.Is(err, cli.ErrCancelled) {
		printError(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func run() error {
	return cli.NewRootCmd(version).Execute()
}

// exitCode maps a command error to the process exit status. A declined
// confirmation is not a failure.
func exitCode(err error) int {
	if err == nil || errors.Is(err, cli.ErrCancelled) {
		return 0
	}
	return 1
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}
