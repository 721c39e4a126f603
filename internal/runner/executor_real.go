package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// RealExecutor runs invocations as child processes of the installer.
//
// Stdin, Stdout and Stderr are the terminal handed to interactive programs;
// [NewRealExecutor] wires them to the process's own standard streams.
type RealExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// replace swaps the process image for ModeReplace. Nil uses the
	// platform implementation.
	replace func(path string, argv []string, env []string) error
}

// NewRealExecutor creates a [RealExecutor] bound to the standard streams.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Execute runs inv according to its [Mode] and waits for it to finish.
func (r *RealExecutor) Execute(ctx context.Context, inv Invocation) (Result, error) {
	if inv.Mode == ModeReplace {
		return r.execReplace(inv)
	}

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)

	var stdout, stderr strings.Builder
	switch inv.Mode {
	case ModeInteractive:
		cmd.Stdin = r.Stdin
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
	case ModeAppend:
		f, err := os.OpenFile(inv.OutputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return Result{ExitCode: -1}, fmt.Errorf("open %s: %w", inv.OutputFile, err)
		}
		defer f.Close()
		cmd.Stdout = f
		cmd.Stderr = &stderr
	default:
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()

	result := Result{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		if errors.Is(err, exec.ErrNotFound) {
			return result, fmt.Errorf("%w: %s", ErrCommandNotFound, inv.Program)
		}
		return result, err
	}

	return result, nil
}

func (r *RealExecutor) execReplace(inv Invocation) (Result, error) {
	path, err := exec.LookPath(inv.Program)
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s", ErrCommandNotFound, inv.Program)
	}

	replace := r.replace
	if replace == nil {
		replace = replaceProcess
	}

	argv := append([]string{inv.Program}, inv.Args...)
	if err := replace(path, argv, os.Environ()); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("exec %s: %w", inv.Program, err)
	}
	// Only reachable with a test double.
	return Result{}, nil
}

// Ensure RealExecutor implements Executor.
var _ Executor = (*RealExecutor)(nil)
