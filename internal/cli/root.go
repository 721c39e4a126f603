// Package cli provides the command-line interface for artixinstall.
//
// The root command runs the whole installation. It takes a single flag,
// --dry-run, which prints every command instead of executing it. Exit codes
// are produced through [ExitError] so the command tree can be tested
// without terminating the process; only [Execute] calls os.Exit.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"artixinstall/internal/config"
	"artixinstall/internal/gate"
	"artixinstall/internal/install"
	"artixinstall/internal/lifecycle"
	"artixinstall/internal/logging"
	"artixinstall/internal/output"
	"artixinstall/internal/runner"
)

// ExecuteResult is the outcome of one command-line run.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// NewRootCommand builds the artixinstall command for app.
func NewRootCommand(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "artixinstall",
		Short: "Guided Artix Linux installation",
		Long: `Guide an Artix Linux installation from partitioning to the chroot handoff.

Steps run in a fixed order and every destructive step asks for confirmation.
With --dry-run nothing on the host is touched: each command is printed with
a [dry-run] marker and treated as successful.

Exit codes:
  0  all steps completed and the chroot was entered
  1  an invoked tool failed, or the command line was invalid
  2  the operator declined a confirmation, pressed Ctrl-C, or input ended
  3  a step ran before its prerequisite
  4  not running as root, or the firmware indicator was unreadable
  5  configuration could not be loaded`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runInstall(cmd.Context(), app, dryRun)
			if err != nil {
				return NewExitError(lifecycle.ExitCode(err))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print commands instead of executing them")
	return cmd
}

func runInstall(ctx context.Context, app *App, simulated bool) error {
	p := app.Printer

	subtitle := "Artix Linux installer"
	if simulated {
		subtitle += "  (dry run, nothing will be changed)"
	}
	p.Banner("artixinstall", subtitle)

	env, err := app.Probe.Detect(simulated)
	if err == nil {
		err = app.Probe.Require(env, simulated)
	}
	if err != nil {
		slog.Error("environment check failed", "error", err)
		p.Error("%v", err)
		return err
	}
	slog.Info("environment detected", "firmware", env.Firmware, "simulated", simulated)

	exec := app.NewExecutor(simulated)
	installEnv := &install.Env{
		Prompter:    app.Prompter,
		Printer:     p,
		Disks:       install.NewDiscovery(exec),
		Environment: env,
	}

	executor := lifecycle.NewExecutor(
		install.Steps(app.Config),
		installEnv,
		gate.New(app.Prompter),
		runner.New(exec, p),
	)
	executor.SetProgressCallback(func(i, total int, step install.Step) {
		p.StepHeader(i, total, step.Name)
	})
	p.KVBox("Installation steps", stepOverview(executor.GetSteps()))

	rc := install.NewRunContext(simulated)
	if err := executor.Execute(ctx, rc); err != nil {
		p.Blank()
		p.Error("%v", err)
		var abortErr *lifecycle.AbortError
		if errors.As(err, &abortErr) {
			p.Warning("Installation aborted. Steps already completed were not rolled back.")
		}
		return err
	}

	p.Blank()
	p.Success("Installation finished.")
	return nil
}

func stepOverview(steps []install.Step) []output.Row {
	rows := make([]output.Row, len(steps))
	for i, step := range steps {
		note := ""
		switch {
		case step.Destructive:
			note = "asks for confirmation"
		case step.Handoff != nil:
			note = "asks before entering the chroot"
		case step.BestEffort:
			note = "may fail without stopping"
		}
		rows[i] = output.Row{Key: fmt.Sprintf("%d  %s", step.Number, step.Name), Value: note}
	}
	return rows
}

// RunWithApp executes the command tree with args and maps the result to an
// exit code. Invalid arguments or flags are reported as
// [lifecycle.ExitToolFailure], as documented in the command help.
func RunWithApp(ctx context.Context, app *App, args []string) ExecuteResult {
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return ExecuteResult{ExitCode: lifecycle.ExitToolFailure, Err: err}
	}
	return ExecuteResult{ExitCode: lifecycle.ExitSuccess}
}

// RunWithConfig runs the installer for the process terminal using cfg.
func RunWithConfig(ctx context.Context, cfg *config.Config, args []string) ExecuteResult {
	return RunWithApp(ctx, NewApp(cfg), args)
}

// Execute loads configuration, sets up logging and runs the installer, then
// exits the process with the resulting code.
func Execute() {
	_ = godotenv.Load()

	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(lifecycle.ExitConfig)
	}

	if err := logging.Initialize(cfg.Logging.Format, cfg.Logging.Level, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(lifecycle.ExitConfig)
	}
	logging.WithRun(uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	result := RunWithConfig(ctx, cfg, os.Args[1:])
	stop()

	os.Exit(result.ExitCode)
}
