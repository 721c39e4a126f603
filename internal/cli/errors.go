package cli

import (
	"errors"
	"fmt"
)

// ExitError represents a command execution failure with a specific exit code.
//
// This error type allows Cobra RunE functions to signal non-zero exit codes
// without calling os.Exit() directly. The root command returns
// NewExitError(code), which propagates up to [RunWithApp] where
// [IsExitError] extracts the code for [ExecuteResult].
//
// Only [Execute] terminates the process.
type ExitError struct {
	// Code is the exit code to return to the shell.
	// See the lifecycle package for the meaning of each value.
	Code int
}

// Error returns "exit status N", matching the os/exec format.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError reports whether err is or wraps an [ExitError] and returns its
// code. It returns (0, false) for nil and for other errors.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
