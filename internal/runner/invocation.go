// Package runner executes command plans against the host, or simulates them.
//
// A [Plan] is an ordered list of [Invocation] values built by an installation
// step. [Runner.Run] hands each invocation to an [Executor] in order and stops
// at the first strict failure. Two executors exist: [RealExecutor] runs the
// program with os/exec, [SimulatedExecutor] prints what would have run and
// always succeeds. Choosing the executor is the only place the installer
// branches on dry-run mode; see [NewForMode].
package runner

import (
	"context"
	"errors"
	"strings"
)

// ErrCommandNotFound is returned when the program of an invocation is not
// on PATH.
var ErrCommandNotFound = errors.New("command not found")

// Mode selects how an invocation is wired to the terminal.
type Mode int

const (
	// ModeCaptured collects stdout and stderr. Output is shown only on failure.
	ModeCaptured Mode = iota
	// ModeInteractive inherits stdin, stdout and stderr. Used for cfdisk
	// and basestrap, which need the operator's terminal.
	ModeInteractive
	// ModeAppend appends stdout to OutputFile, the way a shell ">>" would.
	ModeAppend
	// ModeReplace replaces the installer process with the program. A
	// successful replace never returns.
	ModeReplace
)

func (m Mode) String() string {
	switch m {
	case ModeCaptured:
		return "captured"
	case ModeInteractive:
		return "interactive"
	case ModeAppend:
		return "append"
	case ModeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Invocation is one external program call in a [Plan].
type Invocation struct {
	Program string
	Args    []string

	// Description is the operator-facing summary, e.g. "Format /dev/sda3 as ext4".
	Description string

	Mode Mode

	// OutputFile is the target of ModeAppend.
	OutputFile string

	// BestEffort failures are reported as warnings and do not stop the plan.
	BestEffort bool
}

// CommandLine renders the invocation as an operator would type it.
func (i Invocation) CommandLine() string {
	parts := make([]string, 0, len(i.Args)+3)
	parts = append(parts, i.Program)
	for _, a := range i.Args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	if i.Mode == ModeAppend && i.OutputFile != "" {
		parts = append(parts, ">>", i.OutputFile)
	}
	return strings.Join(parts, " ")
}

// Plan is the ordered list of invocations a step needs.
type Plan []Invocation

// Result is what an [Executor] observed from one invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the program exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs a single invocation.
//
// A non-zero exit is reported in [Result.ExitCode] with a nil error. The
// error return is reserved for invocations that could not be started at all,
// such as [ErrCommandNotFound].
type Executor interface {
	Execute(ctx context.Context, inv Invocation) (Result, error)
}
