package install

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artixinstall/internal/config"
	"artixinstall/internal/gate"
	"artixinstall/internal/output"
	"artixinstall/internal/probe"
	"artixinstall/internal/runner"
)

type fixture struct {
	env      *Env
	exec     *runner.FakeExecutor
	prompter *gate.ScriptedPrompter
	out      *bytes.Buffer
	steps    []Step
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	exec := &runner.FakeExecutor{Responder: SimulatedLsblk}
	prompter := &gate.ScriptedPrompter{}
	out := &bytes.Buffer{}
	return &fixture{
		env: &Env{
			Prompter:    prompter,
			Printer:     output.NewPrinterWithWriter(out),
			Disks:       NewDiscovery(exec),
			Environment: probe.Environment{Firmware: probe.FirmwareUEFI, PrivilegeOK: true},
		},
		exec:     exec,
		prompter: prompter,
		out:      out,
		steps:    Steps(config.DefaultConfig()),
	}
}

func (f *fixture) step(n int) Step {
	return f.steps[n-1]
}

func TestSteps_FixedOrder(t *testing.T) {
	steps := Steps(config.DefaultConfig())

	require.Len(t, steps, 8)
	destructive := map[int]bool{StepPartition: true, StepFormat: true, StepMount: true, StepBase: true, StepKernel: true}
	for i, s := range steps {
		assert.Equal(t, i+1, s.Number)
		assert.Equal(t, StepNames[i], s.Name)
		assert.Equal(t, destructive[s.Number], s.Destructive, "step %d destructive flag", s.Number)
		assert.NotNil(t, s.Plan)
		if s.Destructive {
			assert.NotNil(t, s.Prompt, "destructive step %d needs a prompt", s.Number)
		}
	}
	assert.True(t, steps[StepClock-1].BestEffort)
	assert.NotNil(t, steps[StepFinalize-1].Handoff)
}

func TestSteps_Preconditions(t *testing.T) {
	tests := []struct {
		step     int
		rc       *RunContext
		requires string
	}{
		{StepPartition, &RunContext{}, "Firmware detection"},
		{StepFormat, &RunContext{Firmware: probe.FirmwareUEFI}, "Partitioning"},
		{StepMount, &RunContext{TargetDisk: "/dev/sda", EFIPartition: "/dev/sda1"}, "Formatting"},
		{StepClock, &RunContext{}, "Mounting"},
		{StepBase, &RunContext{}, "Mounting"},
		{StepKernel, &RunContext{Mounted: true}, "Base system install"},
		{StepFinalize, &RunContext{Mounted: true, BaseInstalled: true}, "Kernel install"},
	}

	for _, tt := range tests {
		t.Run(StepNames[tt.step-1], func(t *testing.T) {
			f := newFixture(t)
			err := f.step(tt.step).Check(context.Background(), f.env, tt.rc)

			var pre *PreconditionError
			require.True(t, errors.As(err, &pre), "want PreconditionError, got %v", err)
			assert.Equal(t, tt.step, pre.Number)
			assert.Equal(t, tt.requires, pre.Requires)
			assert.Contains(t, err.Error(), tt.requires)
			assert.Empty(t, f.exec.Calls)
		})
	}
}

func TestFormat_CheckRequiresPartitionsOnDisk(t *testing.T) {
	f := newFixture(t)
	f.exec.Responder = nil
	f.exec.Stdout = map[string]string{"lsblk": `NAME="sda1" SIZE="1G" TYPE="part" PARTTYPENAME="EFI System"` + "\n"}

	err := f.step(StepFormat).Check(context.Background(), f.env, &RunContext{TargetDisk: "/dev/sda"})

	var pre *PreconditionError
	require.True(t, errors.As(err, &pre))
	assert.Contains(t, pre.Reason, "/dev/sda2 not found")
}

func TestFormat_CheckPassesWithStandardLayout(t *testing.T) {
	f := newFixture(t)
	err := f.step(StepFormat).Check(context.Background(), f.env, &RunContext{TargetDisk: "/dev/sda"})
	assert.NoError(t, err)

	out := f.out.String()
	assert.Contains(t, out, "Partitions on /dev/sda")
	assert.Contains(t, out, "/dev/sda2")
	assert.Contains(t, out, "Linux swap")
}

func TestFirmware_CommitsProbedMode(t *testing.T) {
	f := newFixture(t)
	f.env.Environment.Firmware = probe.FirmwareBIOS
	rc := NewRunContext(false)
	s := f.step(StepFirmware)

	plan, err := s.Plan(rc, Selection{})
	require.NoError(t, err)
	assert.Empty(t, plan)

	require.NoError(t, s.Commit(f.env, rc, Selection{}))
	assert.Equal(t, probe.FirmwareBIOS, rc.Firmware)
	assert.Contains(t, f.out.String(), "BIOS/Legacy mode detected")
}

func TestPartition_SelectAndPlan(t *testing.T) {
	f := newFixture(t)
	f.prompter.Selections = []int{1}
	rc := &RunContext{Firmware: probe.FirmwareUEFI}
	s := f.step(StepPartition)

	sel, err := s.Select(context.Background(), f.env, rc)
	require.NoError(t, err)
	assert.Equal(t, "/dev/sdb", sel.Disk.Path)

	s.Preview(f.env, rc, sel)
	assert.Contains(t, f.out.String(), "Suggested layout for /dev/sdb (UEFI)")
	assert.Contains(t, f.out.String(), "All data on /dev/sdb will be erased")

	assert.Equal(t, "Launch cfdisk on /dev/sdb?", s.Prompt(rc, sel))

	plan, err := s.Plan(rc, sel)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "cfdisk /dev/sdb", plan[0].CommandLine())
	assert.Equal(t, runner.ModeInteractive, plan[0].Mode)

	require.NoError(t, s.Commit(f.env, rc, sel))
	assert.Equal(t, "/dev/sdb", rc.TargetDisk)
}

func TestPartition_ManualDiskFallback(t *testing.T) {
	f := newFixture(t)
	f.exec.Responder = nil
	f.exec.FailOn = map[string]int{"lsblk": 1}
	f.prompter.Inputs = []string{"/dev/vda"}

	sel, err := f.step(StepPartition).Select(context.Background(), f.env, &RunContext{})

	require.NoError(t, err)
	assert.Equal(t, Disk{Path: "/dev/vda", Size: "?", Model: "—"}, sel.Disk)
	assert.Contains(t, f.out.String(), "Could not detect disks automatically.")
}

func TestPartition_ManualDiskRejectsNonDevice(t *testing.T) {
	f := newFixture(t)
	f.exec.Responder = nil
	f.exec.Stdout = map[string]string{"lsblk": ""}
	f.prompter.Inputs = []string{"sda"}

	_, err := f.step(StepPartition).Select(context.Background(), f.env, &RunContext{})
	assert.Error(t, err)
}

func TestFormat_Plan(t *testing.T) {
	f := newFixture(t)
	rc := &RunContext{Firmware: probe.FirmwareUEFI, TargetDisk: "/dev/nvme0n1"}
	s := f.step(StepFormat)

	sel, err := s.Select(context.Background(), f.env, rc)
	require.NoError(t, err)
	plan, err := s.Plan(rc, sel)
	require.NoError(t, err)

	lines := make([]string, len(plan))
	for i, inv := range plan {
		lines[i] = inv.CommandLine()
	}
	assert.Equal(t, []string{
		"umount -R /mnt",
		"swapoff /dev/nvme0n1p2",
		"mkfs.fat -F32 /dev/nvme0n1p1",
		"mkswap /dev/nvme0n1p2",
		"mkfs.ext4 /dev/nvme0n1p3",
	}, lines)
	assert.True(t, plan[0].BestEffort)
	assert.True(t, plan[1].BestEffort)
	assert.False(t, plan[4].BestEffort)

	s.Preview(f.env, rc, sel)
	assert.Contains(t, f.out.String(), "THIS WILL PERMANENTLY ERASE")

	require.NoError(t, s.Commit(f.env, rc, sel))
	assert.Equal(t, "/dev/nvme0n1p1", rc.EFIPartition)
	assert.Equal(t, "/dev/nvme0n1p3", rc.RootPartition)
}

func TestMount_Plan(t *testing.T) {
	f := newFixture(t)
	rc := &RunContext{EFIPartition: "/dev/sda1", SwapPartition: "/dev/sda2", RootPartition: "/dev/sda3"}
	s := f.step(StepMount)

	require.NoError(t, s.Check(context.Background(), f.env, rc))
	plan, err := s.Plan(rc, Selection{})
	require.NoError(t, err)

	lines := make([]string, len(plan))
	for i, inv := range plan {
		lines[i] = inv.CommandLine()
	}
	assert.Equal(t, []string{
		"mount /dev/sda3 /mnt",
		"swapoff /dev/sda2",
		"swapon /dev/sda2",
		"mkdir -p /mnt/boot",
		"mount /dev/sda1 /mnt/boot",
	}, lines)
	assert.True(t, plan[1].BestEffort)

	require.NoError(t, s.Commit(f.env, rc, Selection{}))
	assert.True(t, rc.Mounted)
}

func TestClock_Plan(t *testing.T) {
	f := newFixture(t)
	plan, err := f.step(StepClock).Plan(&RunContext{Mounted: true}, Selection{})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "ntpd -gq", plan[0].CommandLine())
	assert.Nil(t, f.step(StepClock).Commit)
}

func TestBase_Plan(t *testing.T) {
	f := newFixture(t)
	rc := &RunContext{Mounted: true}
	s := f.step(StepBase)

	s.Preview(f.env, rc, Selection{})
	assert.Contains(t, f.out.String(), "elogind-openrc")

	plan, err := s.Plan(rc, Selection{})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "basestrap /mnt base base-devel openrc elogind-openrc", plan[0].CommandLine())
	assert.Equal(t, runner.ModeInteractive, plan[0].Mode)
}

func TestKernel_SelectAndPlan(t *testing.T) {
	f := newFixture(t)
	f.prompter.Selections = []int{1}
	rc := &RunContext{Mounted: true, BaseInstalled: true}
	s := f.step(StepKernel)

	sel, err := s.Select(context.Background(), f.env, rc)
	require.NoError(t, err)
	assert.Equal(t, KernelLTS, sel.Kernel)
	assert.Contains(t, f.out.String(), "Selected: Linux LTS (long-term support)")

	assert.Equal(t, "Install linux-lts + linux-firmware?", s.Prompt(rc, sel))

	plan, err := s.Plan(rc, sel)
	require.NoError(t, err)
	assert.Equal(t, "basestrap /mnt linux-lts linux-firmware", plan[0].CommandLine())

	require.NoError(t, s.Commit(f.env, rc, sel))
	assert.Equal(t, KernelLTS, rc.Kernel)
}

func TestKernel_SelectPreselectsConfiguredVariant(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		want      KernelVariant
		wantWarn  bool
	}{
		{name: "by variant", preferred: "zen", want: KernelZen},
		{name: "by package", preferred: "linux-lts", want: KernelLTS},
		{name: "empty", preferred: "", want: KernelStable},
		{name: "unknown", preferred: "hardened", want: KernelStable, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cfg := config.DefaultConfig()
			cfg.Packages.Kernel = tt.preferred
			s := Steps(cfg)[StepKernel-1]

			// No scripted selection: the operator accepts the default.
			sel, err := s.Select(context.Background(), f.env, &RunContext{BaseInstalled: true})

			require.NoError(t, err)
			assert.Equal(t, tt.want, sel.Kernel)
			if tt.wantWarn {
				assert.Contains(t, f.out.String(), `unknown kernel variant "hardened"`)
			} else {
				assert.NotContains(t, f.out.String(), "unknown kernel variant")
			}
		})
	}
}

func TestKernel_PlanRejectsUnknownVariant(t *testing.T) {
	f := newFixture(t)
	_, err := f.step(StepKernel).Plan(&RunContext{}, Selection{Kernel: "hardened"})
	assert.Error(t, err)
}

func TestFinalize_PlanAndHandoff(t *testing.T) {
	f := newFixture(t)
	rc := &RunContext{Kernel: KernelZen}
	s := f.step(StepFinalize)

	plan, err := s.Plan(rc, Selection{})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "mkdir -p /mnt/etc", plan[0].CommandLine())
	assert.Equal(t, "fstabgen -U /mnt >> /mnt/etc/fstab", plan[1].CommandLine())
	assert.Equal(t, runner.ModeAppend, plan[1].Mode)

	require.NoError(t, s.Commit(f.env, rc, Selection{}))
	assert.True(t, rc.FstabWritten)

	h := s.Handoff
	h.Preview(f.env, rc)
	assert.Contains(t, f.out.String(), "Post-chroot checklist")
	assert.Contains(t, f.out.String(), "bootloader")

	inv := h.Invocation(rc)
	assert.Equal(t, "artix-chroot /mnt", inv.CommandLine())
	assert.Equal(t, runner.ModeReplace, inv.Mode)
	assert.Equal(t, "Enter the new system with artix-chroot now?", h.Prompt(rc))
	assert.Contains(t, h.DeclineHint(rc), "artix-chroot /mnt")
}

func TestSteps_HonourConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MountRoot = "/target"
	cfg.Tools.Installer = "pacstrap"
	steps := Steps(cfg)

	plan, err := steps[StepBase-1].Plan(&RunContext{}, Selection{})
	require.NoError(t, err)
	assert.Equal(t, "pacstrap /target base base-devel openrc elogind-openrc", plan[0].CommandLine())

	plan, err = steps[StepFinalize-1].Plan(&RunContext{}, Selection{})
	require.NoError(t, err)
	assert.Equal(t, "fstabgen -U /target >> /target/etc/fstab", plan[1].CommandLine())
}
