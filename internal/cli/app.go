package cli

import (
	"os"

	"artixinstall/internal/config"
	"artixinstall/internal/gate"
	"artixinstall/internal/install"
	"artixinstall/internal/output"
	"artixinstall/internal/probe"
	"artixinstall/internal/runner"
)

// App holds the dependencies shared by the command tree.
//
// Tests build an App by hand with a buffer-backed [output.Printer], a
// [gate.ScriptedPrompter] and a simulated executor; [NewApp] wires the real
// terminal and host.
type App struct {
	Config   *config.Config
	Printer  *output.Printer
	Prompter gate.Prompter
	Probe    *probe.Probe

	// NewExecutor picks the command executor once the --dry-run flag is known.
	NewExecutor func(simulated bool) runner.Executor
}

// NewApp wires an [App] for the process terminal.
func NewApp(cfg *config.Config) *App {
	printer := output.NewPrinter()
	return &App{
		Config:   cfg,
		Printer:  printer,
		Prompter: gate.NewTerminalPrompter(os.Stdin, printer),
		Probe:    probe.New(cfg.Firmware.EFIVarsPath),
		NewExecutor: func(simulated bool) runner.Executor {
			return runner.NewForMode(simulated, printer, cfg.Simulation.Delay, install.SimulatedLsblk)
		},
	}
}
