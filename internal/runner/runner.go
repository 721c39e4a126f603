package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"artixinstall/internal/output"
)

// Failure describes the invocation that broke a plan.
type Failure struct {
	Invocation Invocation
	ExitCode   int
	Stderr     string

	// Err is set when the program could not be started.
	Err error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Invocation.Description, f.Err)
	}
	return fmt.Sprintf("%s: %s exited with status %d", f.Invocation.Description, f.Invocation.Program, f.ExitCode)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome is the result of running a [Plan].
type Outcome struct {
	// Failure is the first strict invocation that failed, nil on success.
	Failure *Failure

	// Ignored lists best-effort invocations that failed.
	Ignored []Failure
}

// Succeeded reports whether every strict invocation succeeded.
func (o Outcome) Succeeded() bool {
	return o.Failure == nil
}

// Err returns the failure as an error, or nil.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

// Runner executes plans in order through an [Executor].
type Runner struct {
	executor Executor
	printer  *output.Printer
}

// New creates a [Runner].
func New(executor Executor, printer *output.Printer) *Runner {
	return &Runner{executor: executor, printer: printer}
}

// Run executes plan in order and stops at the first failure of an
// invocation that is not best-effort. Invocations that already ran are not
// undone.
func (r *Runner) Run(ctx context.Context, plan Plan) Outcome {
	var outcome Outcome

	for i, inv := range plan {
		slog.Debug("running invocation", "index", i+1, "of", len(plan), "command", inv.CommandLine())

		res, err := r.executor.Execute(ctx, inv)
		if err == nil && res.Success() {
			r.printer.Success("%s", inv.Description)
			continue
		}

		failure := Failure{Invocation: inv, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}

		if inv.BestEffort {
			slog.Warn("best-effort invocation failed", "command", inv.CommandLine(), "exit_code", res.ExitCode, "error", err)
			r.printer.Warning("%s (skipped: %s)", inv.Description, shortReason(&failure))
			outcome.Ignored = append(outcome.Ignored, failure)
			continue
		}

		slog.Error("invocation failed", "command", inv.CommandLine(), "exit_code", res.ExitCode, "error", err)
		r.printer.Error("%s", failure.Error())
		r.surface(res)
		outcome.Failure = &failure
		return outcome
	}

	return outcome
}

// surface shows the tool's own diagnostic. Interactive programs already
// wrote to the terminal, so their streams are empty here.
func (r *Runner) surface(res Result) {
	text := strings.TrimSpace(res.Stderr)
	if text == "" {
		text = strings.TrimSpace(res.Stdout)
	}
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		r.printer.Info("%s", line)
	}
}

func shortReason(f *Failure) string {
	if f.Err != nil {
		if errors.Is(f.Err, ErrCommandNotFound) {
			return "command not found"
		}
		return f.Err.Error()
	}
	return fmt.Sprintf("exit status %d", f.ExitCode)
}
