// Package lifecycle drives the installation steps from start to chroot.
//
// The lifecycle package provides [Executor] which runs the fixed step table
// built by [install.Steps] against one [install.RunContext]. For each step it
// checks the precondition, lets the operator choose, asks for confirmation
// when the step is destructive, runs the plan and records the result.
//
// Key concepts:
//   - Steps run strictly in order, one at a time
//   - The first failure ends the run; nothing is retried or rolled back
//   - A declined confirmation or an interrupt ends the run as [AbortError]
//   - Progress can be tracked via [ProgressCallback]
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"artixinstall/internal/gate"
	"artixinstall/internal/install"
	"artixinstall/internal/runner"
)

// PlanRunner executes a command plan.
//
// The [runner.Runner] type implements this interface.
type PlanRunner interface {
	Run(ctx context.Context, plan runner.Plan) runner.Outcome
}

// Confirmer asks the operator to approve a destructive action.
//
// The [gate.Gate] type implements this interface.
type Confirmer interface {
	Confirm(ctx context.Context, req gate.Request) (gate.Confirmation, error)
}

// ProgressCallback is invoked before each step begins.
//
// The callback receives stepIndex (1-based), totalSteps count, and the step.
// It is optional and can be set via [Executor.SetProgressCallback].
type ProgressCallback func(stepIndex, totalSteps int, step install.Step)

// Executor orchestrates the installation steps.
//
// Executor uses dependency injection for testability: [PlanRunner] executes
// command plans and [Confirmer] gates destructive steps. Use [NewExecutor]
// to create an instance and [Executor.Execute] to run the installation.
type Executor struct {
	steps            []install.Step
	env              *install.Env
	gate             Confirmer
	runner           PlanRunner
	progressCallback ProgressCallback
}

// NewExecutor creates a new Executor with the required dependencies.
func NewExecutor(steps []install.Step, env *install.Env, gate Confirmer, runner PlanRunner) *Executor {
	return &Executor{
		steps:  steps,
		env:    env,
		gate:   gate,
		runner: runner,
	}
}

// SetProgressCallback configures an optional progress callback.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.progressCallback = cb
}

// GetSteps returns the step table without executing anything.
func (e *Executor) GetSteps() []install.Step {
	return e.steps
}

// Execute runs every step in order against rc.
//
// Execute uses fail-fast behavior: it stops on the first error and returns
// immediately. The error is one of [AbortError], [ToolError],
// [install.PreconditionError], or a wrapped step error; [ExitCode] maps it
// to the process exit status. RunContext fields recorded by completed steps
// are never modified after a failure.
func (e *Executor) Execute(ctx context.Context, rc *install.RunContext) error {
	return e.ExecuteFrom(ctx, rc, 1)
}

// ExecuteFrom runs the steps starting at step number first. Earlier steps
// are assumed to be reflected in rc; if they are not, the first step's
// precondition fails.
func (e *Executor) ExecuteFrom(ctx context.Context, rc *install.RunContext, first int) error {
	if first < 1 || first > len(e.steps) {
		return fmt.Errorf("no step %d (have 1-%d)", first, len(e.steps))
	}

	total := len(e.steps)
	for i := first - 1; i < total; i++ {
		step := e.steps[i]

		if e.progressCallback != nil {
			e.progressCallback(i+1, total, step)
		}

		if err := e.runStep(ctx, step, rc); err != nil {
			err = cancelled(ctx, step, err)
			slog.Error("step halted the run", "step", step.Number, "name", step.Name, "error", err)
			return err
		}
		slog.Info("step complete", "step", step.Number, "name", step.Name)
	}

	return nil
}

func (e *Executor) runStep(ctx context.Context, step install.Step, rc *install.RunContext) error {
	if step.Check != nil {
		if err := step.Check(ctx, e.env, rc); err != nil {
			return err
		}
	}

	var sel install.Selection
	if step.Select != nil {
		var err error
		if sel, err = step.Select(ctx, e.env, rc); err != nil {
			return e.inputError(step, err)
		}
	}

	if step.Preview != nil {
		step.Preview(e.env, rc, sel)
	}

	if step.Destructive {
		question := fmt.Sprintf("Run step %d (%s)?", step.Number, step.Name)
		if step.Prompt != nil {
			question = step.Prompt(rc, sel)
		}
		if err := e.confirm(ctx, step, rc, question); err != nil {
			return err
		}
	}

	plan, err := step.Plan(rc, sel)
	if err != nil {
		return fmt.Errorf("step %d (%s): %w", step.Number, step.Name, err)
	}

	outcome := e.runner.Run(ctx, plan)
	if !outcome.Succeeded() {
		if step.BestEffort {
			slog.Warn("best-effort step failed", "step", step.Number, "name", step.Name, "error", outcome.Err())
			e.env.Printer.Warning("%s did not succeed; continuing without it.", step.Name)
			return nil
		}
		return &ToolError{Number: step.Number, Step: step.Name, Failure: outcome.Failure}
	}

	if step.Commit != nil {
		if err := step.Commit(e.env, rc, sel); err != nil {
			return fmt.Errorf("step %d (%s): %w", step.Number, step.Name, err)
		}
	}

	if step.Handoff != nil {
		return e.handoff(ctx, step, rc)
	}
	return nil
}

func (e *Executor) confirm(ctx context.Context, step install.Step, rc *install.RunContext, question string) error {
	answer, err := e.gate.Confirm(ctx, gate.Request{
		Step:        step.Name,
		Destructive: true,
		Question:    question,
		Simulated:   rc.Simulated,
	})
	if err != nil {
		return e.inputError(step, err)
	}
	if !answer.Proceed() {
		return &AbortError{Number: step.Number, Step: step.Name}
	}
	return nil
}

func (e *Executor) handoff(ctx context.Context, step install.Step, rc *install.RunContext) error {
	h := step.Handoff
	if h.Preview != nil {
		h.Preview(e.env, rc)
	}

	if err := e.confirm(ctx, step, rc, h.Prompt(rc)); err != nil {
		var abortErr *AbortError
		if errors.As(err, &abortErr) && h.DeclineHint != nil {
			e.env.Printer.Warning("Skipping chroot.")
			e.env.Printer.Info("%s", h.DeclineHint(rc))
		}
		return err
	}

	outcome := e.runner.Run(ctx, runner.Plan{h.Invocation(rc)})
	if !outcome.Succeeded() {
		return &ToolError{Number: step.Number, Step: step.Name, Failure: outcome.Failure}
	}
	return nil
}

// cancelled reports an error that happened after the operator interrupted
// the run (Ctrl-C) as an abort of step, whatever form it surfaced in: a
// killed child process, a failed lsblk query or an unanswered prompt.
func cancelled(ctx context.Context, step install.Step, err error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		return err
	}
	var abortErr *AbortError
	if errors.As(err, &abortErr) && abortErr.Err != nil {
		return err
	}
	return &AbortError{Number: step.Number, Step: step.Name, Err: ctxErr}
}

// inputError turns a closed input stream into an abort; other selection
// errors keep their identity.
func (e *Executor) inputError(step install.Step, err error) error {
	if errors.Is(err, gate.ErrNoInput) {
		return &AbortError{Number: step.Number, Step: step.Name, Err: err}
	}
	return fmt.Errorf("step %d (%s): %w", step.Number, step.Name, err)
}
