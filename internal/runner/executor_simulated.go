package runner

import (
	"context"
	"log/slog"
	"time"

	"artixinstall/internal/output"
)

// Responder supplies canned output for read-only queries (lsblk) in dry-run
// mode. It returns ok=false for invocations it does not recognise.
type Responder func(inv Invocation) (stdout string, ok bool)

// SimulatedExecutor prints each invocation instead of running it.
//
// It never touches the host: no process is started and no file is opened,
// including ModeAppend targets. Every invocation succeeds.
type SimulatedExecutor struct {
	printer   *output.Printer
	delay     time.Duration
	responder Responder

	// Calls records every invocation in order.
	Calls []Invocation
}

// NewSimulatedExecutor creates a [SimulatedExecutor]. delay is slept after
// each printed line; responder may be nil.
func NewSimulatedExecutor(printer *output.Printer, delay time.Duration, responder Responder) *SimulatedExecutor {
	return &SimulatedExecutor{
		printer:   printer,
		delay:     delay,
		responder: responder,
	}
}

// Execute prints the command line of inv and reports success.
func (s *SimulatedExecutor) Execute(ctx context.Context, inv Invocation) (Result, error) {
	s.Calls = append(s.Calls, inv)
	s.printer.DryRun(inv.CommandLine())
	slog.Debug("simulated invocation", "program", inv.Program, "args", inv.Args, "mode", inv.Mode.String())

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return Result{ExitCode: -1}, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	var result Result
	if s.responder != nil {
		if out, ok := s.responder(inv); ok {
			result.Stdout = out
		}
	}
	return result, nil
}

// NewForMode returns the executor for the requested mode. This is the single
// place where dry-run changes behavior.
func NewForMode(simulated bool, printer *output.Printer, delay time.Duration, responder Responder) Executor {
	if simulated {
		return NewSimulatedExecutor(printer, delay, responder)
	}
	return NewRealExecutor()
}

// Ensure SimulatedExecutor implements Executor.
var _ Executor = (*SimulatedExecutor)(nil)
