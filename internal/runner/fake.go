package runner

import (
	"context"
	"strings"
)

// FakeExecutor is an [Executor] for tests. It records every invocation and
// returns scripted results without starting processes.
type FakeExecutor struct {
	// Calls records every invocation in order.
	Calls []Invocation

	// FailOn maps a program name to the exit code it should return.
	FailOn map[string]int

	// Errors maps a program name to a start error, e.g. ErrCommandNotFound.
	Errors map[string]error

	// Stdout maps a command line prefix to canned stdout.
	Stdout map[string]string

	// Stderr maps a program name to canned stderr for failures.
	Stderr map[string]string

	// Responder, when set, is consulted before Stdout.
	Responder Responder
}

// Execute records inv and returns the scripted result.
func (f *FakeExecutor) Execute(ctx context.Context, inv Invocation) (Result, error) {
	f.Calls = append(f.Calls, inv)

	if err, ok := f.Errors[inv.Program]; ok {
		return Result{ExitCode: -1}, err
	}

	var res Result
	if code, ok := f.FailOn[inv.Program]; ok {
		res.ExitCode = code
		res.Stderr = f.Stderr[inv.Program]
		return res, nil
	}

	if f.Responder != nil {
		if out, ok := f.Responder(inv); ok {
			res.Stdout = out
			return res, nil
		}
	}

	line := inv.CommandLine()
	for prefix, out := range f.Stdout {
		if strings.HasPrefix(line, prefix) {
			res.Stdout = out
			break
		}
	}
	return res, nil
}

// Programs returns the program names of the recorded calls.
func (f *FakeExecutor) Programs() []string {
	names := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		names[i] = c.Program
	}
	return names
}

// CommandLines returns the rendered command lines of the recorded calls.
func (f *FakeExecutor) CommandLines() []string {
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = c.CommandLine()
	}
	return lines
}

// Ensure FakeExecutor implements Executor.
var _ Executor = (*FakeExecutor)(nil)
