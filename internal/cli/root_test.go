package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artixinstall/internal/config"
	"artixinstall/internal/gate"
	"artixinstall/internal/install"
	"artixinstall/internal/lifecycle"
	"artixinstall/internal/output"
	"artixinstall/internal/probe"
	"artixinstall/internal/runner"
)

type testApp struct {
	app       *App
	out       *bytes.Buffer
	prompter  *gate.ScriptedPrompter
	fake      *runner.FakeExecutor
	simulated []bool
}

// newTestApp builds an App whose real-mode executor is a FakeExecutor and
// whose dry-run executor is the genuine simulated one.
func newTestApp(t *testing.T, euid int, confirms ...bool) *testApp {
	t.Helper()
	if confirms == nil {
		confirms = []bool{true, true, true, true, true, true}
	}

	out := &bytes.Buffer{}
	printer := output.NewPrinterWithWriter(out)
	prompter := &gate.ScriptedPrompter{Confirms: confirms, Selections: []int{0, 1}}

	p := probe.New(t.TempDir())
	p.Geteuid = func() int { return euid }

	ta := &testApp{
		out:      out,
		prompter: prompter,
		fake:     &runner.FakeExecutor{Responder: install.SimulatedLsblk},
	}
	ta.app = &App{
		Config:   config.DefaultConfig(),
		Printer:  printer,
		Prompter: prompter,
		Probe:    p,
		NewExecutor: func(simulated bool) runner.Executor {
			ta.simulated = append(ta.simulated, simulated)
			if simulated {
				return runner.NewSimulatedExecutor(printer, 0, install.SimulatedLsblk)
			}
			return ta.fake
		},
	}
	return ta
}

func TestRun_DryRunCompletes(t *testing.T) {
	// Not root: dry-run must not care.
	ta := newTestApp(t, 1000)

	result := RunWithApp(context.Background(), ta.app, []string{"--dry-run"})

	require.NoError(t, result.Err)
	assert.Equal(t, lifecycle.ExitSuccess, result.ExitCode)
	assert.Equal(t, []bool{true}, ta.simulated)
	assert.Empty(t, ta.fake.Calls, "the real executor must never be used")

	out := ta.out.String()
	assert.Contains(t, out, "dry run")
	for i := 1; i <= 8; i++ {
		assert.Contains(t, out, fmt.Sprintf("[%d/8]", i))
	}
	assert.Contains(t, out, "[dry-run] cfdisk /dev/sda")
	assert.Contains(t, out, "[dry-run] mkfs.ext4 /dev/sda3")
	assert.Contains(t, out, "[dry-run] basestrap /mnt linux-lts linux-firmware")
	assert.Contains(t, out, "[dry-run] artix-chroot /mnt")
	assert.Contains(t, out, "Installation finished.")
	assert.Contains(t, out, "Installation steps")
	assert.Contains(t, out, "8  fstab + chroot handoff")
}

func TestRun_NotRootIsEnvironmentFailure(t *testing.T) {
	ta := newTestApp(t, 1000)

	result := RunWithApp(context.Background(), ta.app, nil)

	require.Error(t, result.Err)
	assert.Equal(t, lifecycle.ExitEnvironment, result.ExitCode)
	assert.Empty(t, ta.simulated, "no executor is built before the environment passes")
	assert.Empty(t, ta.prompter.Questions)
	assert.Contains(t, ta.out.String(), "root")
}

func TestRun_UnreadableFirmwareIndicator(t *testing.T) {
	ta := newTestApp(t, 0)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	ta.app.Probe.EFIVarsPath = filepath.Join(file, "efivars")

	result := RunWithApp(context.Background(), ta.app, nil)

	assert.Equal(t, lifecycle.ExitEnvironment, result.ExitCode)
	assert.Empty(t, ta.fake.Calls)
}

func TestRun_ToolFailure(t *testing.T) {
	ta := newTestApp(t, 0)
	ta.fake.FailOn = map[string]int{"mkfs.ext4": 1}

	result := RunWithApp(context.Background(), ta.app, nil)

	assert.Equal(t, lifecycle.ExitToolFailure, result.ExitCode)
	assert.Equal(t, []bool{false}, ta.simulated)
	assert.NotContains(t, ta.fake.Programs(), "mount")
	assert.Contains(t, ta.out.String(), "step 3 (Formatting) failed")
}

func TestRun_DeclineIsUserAbort(t *testing.T) {
	tests := []struct {
		name     string
		confirms []bool
	}{
		{name: "decline partitioning", confirms: []bool{false}},
		{name: "decline formatting", confirms: []bool{true, false}},
		{name: "decline chroot", confirms: []bool{true, true, true, true, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, 0, tt.confirms...)

			result := RunWithApp(context.Background(), ta.app, []string{"--dry-run"})

			assert.Equal(t, lifecycle.ExitUserAbort, result.ExitCode)
			assert.Contains(t, ta.out.String(), "not rolled back")
		})
	}
}

func TestRun_InputClosedIsUserAbort(t *testing.T) {
	ta := newTestApp(t, 0)
	ta.prompter.Confirms = nil

	result := RunWithApp(context.Background(), ta.app, []string{"--dry-run"})

	assert.Equal(t, lifecycle.ExitUserAbort, result.ExitCode)
}

func TestRun_InterruptIsUserAbort(t *testing.T) {
	ta := newTestApp(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := RunWithApp(ctx, ta.app, []string{"--dry-run"})

	assert.Equal(t, lifecycle.ExitUserAbort, result.ExitCode)
	assert.Empty(t, ta.prompter.Questions)
	assert.Contains(t, ta.out.String(), "not rolled back")
}

func TestRun_RejectsInvalidCommandLine(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "positional argument", args: []string{"/dev/sda"}},
		{name: "unknown flag", args: []string{"--disk=/dev/sda"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, 0)

			result := RunWithApp(context.Background(), ta.app, tt.args)

			require.Error(t, result.Err)
			_, isExit := IsExitError(result.Err)
			assert.False(t, isExit)
			assert.Equal(t, lifecycle.ExitToolFailure, result.ExitCode)
			assert.Empty(t, ta.simulated)
		})
	}
}

func TestRootCommand_SingleFlag(t *testing.T) {
	cmd := NewRootCommand(newTestApp(t, 0).app)

	var names []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) { names = append(names, f.Name) })

	assert.Equal(t, []string{"dry-run"}, names)
	for code := 0; code <= 5; code++ {
		assert.Contains(t, cmd.Long, fmt.Sprintf("  %d  ", code))
	}
	assert.Contains(t, cmd.Long, "command line was invalid")
	assert.Contains(t, cmd.Long, "Ctrl-C")
}

func TestIsExitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("boom")},
		{name: "exit error", err: NewExitError(3), wantCode: 3, wantOK: true},
		{name: "wrapped exit error", err: fmt.Errorf("run: %w", NewExitError(2)), wantCode: 2, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := IsExitError(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestExitError_Error(t *testing.T) {
	assert.Equal(t, "exit status 4", NewExitError(4).Error())
}
