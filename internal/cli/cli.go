// Package cli holds the exit code boundary shared by the commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes common to every command.
const (
	ExitOK      = 0
	ExitFailure = 99
)

// ExitError carries the process exit code a command failed with.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit with code %d", e.Code)
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// Exit wraps err with code, a nil err stays nil.
func Exit(code int, err error) error {
	if err == nil {
		return nil
	}
	return ExitError{Code: code, Err: err}
}

// Run executes cmd and maps its error to an exit code.
//
// Errors that are not an ExitError are reported on stderr and exit with ExitFailure.
// ExitError messages are expected to be reported by the command itself.
func Run(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	printError(cmd.ErrOrStderr(), err)
	return ExitFailure
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", err)
}
