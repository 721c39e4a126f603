package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"artixinstall/internal/gate"
	"artixinstall/internal/install"
	"artixinstall/internal/probe"
	"artixinstall/internal/runner"
)

// Process exit codes. These values are part of the command-line contract
// and must not change.
const (
	ExitSuccess      = 0 // all steps done, chroot handoff reached
	ExitToolFailure  = 1 // an invoked program failed, or the command line was invalid
	ExitUserAbort    = 2 // the operator declined, interrupted, or closed input
	ExitPrecondition = 3 // a step ran before its prerequisite
	ExitEnvironment  = 4 // not root, or firmware indicator unreadable
	ExitConfig       = 5 // configuration could not be loaded
)

// AbortError reports that the operator declined to continue. Steps that
// already completed are left in place.
type AbortError struct {
	Number int
	Step   string

	// Err is set when the abort was caused by missing input or an
	// interrupt rather than an explicit "no".
	Err error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aborted at step %d (%s): %v", e.Number, e.Step, e.Err)
	}
	return fmt.Sprintf("aborted by operator at step %d (%s)", e.Number, e.Step)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// ToolError reports the invocation that failed a step.
type ToolError struct {
	Number  int
	Step    string
	Failure *runner.Failure
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Number, e.Step, e.Failure)
}

func (e *ToolError) Unwrap() error {
	return e.Failure
}

// ExitCode maps an error returned by [Executor.Execute] or by startup checks
// to the process exit code. Unknown errors count as tool failures.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		abortErr *AbortError
		preErr   *install.PreconditionError
		envErr   *probe.EnvironmentError
	)
	switch {
	case errors.As(err, &abortErr), errors.Is(err, gate.ErrNoInput), errors.Is(err, context.Canceled):
		return ExitUserAbort
	case errors.As(err, &preErr):
		return ExitPrecondition
	case errors.As(err, &envErr):
		return ExitEnvironment
	default:
		return ExitToolFailure
	}
}
