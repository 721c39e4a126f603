package install

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"artixinstall/internal/config"
	"artixinstall/internal/gate"
	"artixinstall/internal/output"
	"artixinstall/internal/probe"
	"artixinstall/internal/runner"
)

// Step numbers, 1-based as shown to the operator.
const (
	StepFirmware = iota + 1
	StepPartition
	StepFormat
	StepMount
	StepClock
	StepBase
	StepKernel
	StepFinalize
)

// StepNames holds the label of each step, indexed by number minus one.
var StepNames = [...]string{
	"Firmware detection",
	"Partitioning",
	"Formatting",
	"Mounting",
	"Clock sync",
	"Base system install",
	"Kernel install",
	"fstab + chroot handoff",
}

// Env is what steps may use besides the RunContext.
type Env struct {
	Prompter    gate.Prompter
	Printer     *output.Printer
	Disks       *Discovery
	Environment probe.Environment
}

// Selection carries the operator's choices from Select to Plan and Commit.
type Selection struct {
	Disk   Disk
	Layout Layout
	Kernel KernelVariant
}

// Step is an immutable descriptor of one installation step. Only Number,
// Name and Plan are required; nil functions are skipped.
type Step struct {
	Number      int
	Name        string
	Destructive bool

	// BestEffort steps warn and continue when their plan fails.
	BestEffort bool

	// Check validates the precondition. It runs before any prompt.
	Check func(ctx context.Context, env *Env, rc *RunContext) error

	// Select asks the operator to choose a device or variant.
	Select func(ctx context.Context, env *Env, rc *RunContext) (Selection, error)

	// Preview shows what is about to happen.
	Preview func(env *Env, rc *RunContext, sel Selection)

	// Prompt is the confirmation question for destructive steps.
	Prompt func(rc *RunContext, sel Selection) string

	Plan func(rc *RunContext, sel Selection) (runner.Plan, error)

	// Commit records the postcondition once the plan succeeded.
	Commit func(env *Env, rc *RunContext, sel Selection) error

	// Handoff is a final gated invocation that runs after Commit.
	Handoff *Handoff
}

// Handoff hands the terminal to the installed system.
type Handoff struct {
	Preview     func(env *Env, rc *RunContext)
	Prompt      func(rc *RunContext) string
	Invocation  func(rc *RunContext) runner.Invocation
	DeclineHint func(rc *RunContext) string
}

var packageNotes = map[string]string{
	"base":           "core system utilities",
	"base-devel":     "build tools (gcc, make, ...)",
	"openrc":         "init system",
	"elogind-openrc": "session management",
}

var postChrootChecklist = []output.Row{
	{Key: "hostname", Value: "echo myhostname > /etc/hostname"},
	{Key: "timezone", Value: "ln -sf /usr/share/zoneinfo/<Region>/<City> /etc/localtime"},
	{Key: "locale", Value: "edit /etc/locale.gen, then locale-gen"},
	{Key: "password", Value: "passwd"},
	{Key: "bootloader", Value: "grub-install, then grub-mkconfig"},
	{Key: "network", Value: "pacman -S networkmanager networkmanager-openrc"},
}

// Steps returns the eight installation steps in their only valid order.
func Steps(cfg *config.Config) []Step {
	root := cfg.MountRoot
	tools := cfg.Tools

	return []Step{
		{
			Number: StepFirmware,
			Name:   StepNames[StepFirmware-1],
			Plan:   emptyPlan,
			Commit: func(env *Env, rc *RunContext, _ Selection) error {
				fw := env.Environment.Firmware
				if fw == "" {
					return fmt.Errorf("firmware mode was not detected")
				}
				if err := rc.SetFirmware(fw); err != nil {
					return err
				}
				if fw == probe.FirmwareUEFI {
					env.Printer.Success("UEFI mode detected, an EFI system partition is required.")
				} else {
					env.Printer.Warning("BIOS/Legacy mode detected, partition 1 becomes a FAT32 boot partition.")
				}
				return nil
			},
		},
		{
			Number:      StepPartition,
			Name:        StepNames[StepPartition-1],
			Destructive: true,
			Check: func(_ context.Context, _ *Env, rc *RunContext) error {
				if rc.Firmware == "" {
					return unmet(StepPartition, StepFirmware, "firmware mode unknown")
				}
				return nil
			},
			Select: selectDisk,
			Preview: func(env *Env, rc *RunContext, sel Selection) {
				s := Suggest(sel.Disk, rc.Firmware)
				rows := make([]output.Row, len(s.Rows))
				for i, r := range s.Rows {
					rows[i] = output.Row{
						Key:   fmt.Sprintf("Part %d", i+1),
						Value: fmt.Sprintf("%-16s %-5s %s", r.Path, r.Role, r.Size),
					}
				}
				env.Printer.KVBox(fmt.Sprintf("Suggested layout for %s (%s)", s.Disk, s.Firmware), rows)
				env.Printer.Warning("All data on %s will be erased when you write the partition table.", sel.Disk.Path)
			},
			Prompt: func(_ *RunContext, sel Selection) string {
				return fmt.Sprintf("Launch %s on %s?", tools.Partitioner, sel.Disk.Path)
			},
			Plan: func(_ *RunContext, sel Selection) (runner.Plan, error) {
				return runner.Plan{{
					Program:     tools.Partitioner,
					Args:        []string{sel.Disk.Path},
					Description: "Partition " + sel.Disk.Path,
					Mode:        runner.ModeInteractive,
				}}, nil
			},
			Commit: func(_ *Env, rc *RunContext, sel Selection) error {
				return rc.SetTargetDisk(sel.Disk.Path)
			},
		},
		{
			Number:      StepFormat,
			Name:        StepNames[StepFormat-1],
			Destructive: true,
			Check: func(ctx context.Context, env *Env, rc *RunContext) error {
				if rc.TargetDisk == "" {
					return unmet(StepFormat, StepPartition, "no target disk selected")
				}
				parts, err := env.Disks.ListPartitions(ctx, rc.TargetDisk)
				if err != nil {
					return unmet(StepFormat, StepPartition, "cannot list partitions of %s: %v", rc.TargetDisk, err)
				}
				found := make([]output.Row, len(parts))
				for i, p := range parts {
					found[i] = output.Row{Key: fmt.Sprintf("%d", i+1), Value: p.Label()}
				}
				env.Printer.KVBox("Partitions on "+rc.TargetDisk, found)

				l := LayoutFor(rc.TargetDisk)
				for _, want := range []string{l.EFI, l.Swap, l.Root} {
					if !slices.ContainsFunc(parts, func(p Partition) bool { return p.Path == want }) {
						return unmet(StepFormat, StepPartition, "partition %s not found on %s", want, rc.TargetDisk)
					}
				}
				return nil
			},
			Select: func(_ context.Context, _ *Env, rc *RunContext) (Selection, error) {
				return Selection{Layout: LayoutFor(rc.TargetDisk)}, nil
			},
			Preview: func(env *Env, rc *RunContext, sel Selection) {
				first := "EFI  (FAT32)"
				if rc.Firmware == probe.FirmwareBIOS {
					first = "Boot (FAT32)"
				}
				env.Printer.KVBox("Partition layout", []output.Row{
					{Key: first, Value: sel.Layout.EFI},
					{Key: "Swap", Value: sel.Layout.Swap},
					{Key: "Root (ext4)", Value: sel.Layout.Root},
				})
				env.Printer.Error("THIS WILL PERMANENTLY ERASE THE SELECTED PARTITIONS.")
			},
			Prompt: func(*RunContext, Selection) string {
				return "Format these partitions?"
			},
			Plan: func(_ *RunContext, sel Selection) (runner.Plan, error) {
				l := sel.Layout
				return runner.Plan{
					{Program: "umount", Args: []string{"-R", root}, Description: "Unmount leftovers under " + root, BestEffort: true},
					{Program: "swapoff", Args: []string{l.Swap}, Description: "Deactivate swap on " + l.Swap, BestEffort: true},
					{Program: "mkfs.fat", Args: []string{"-F32", l.EFI}, Description: "Format " + l.EFI + " as FAT32"},
					{Program: "mkswap", Args: []string{l.Swap}, Description: "Initialise swap on " + l.Swap},
					{Program: "mkfs.ext4", Args: []string{l.Root}, Description: "Format " + l.Root + " as ext4"},
				}, nil
			},
			Commit: func(_ *Env, rc *RunContext, sel Selection) error {
				return rc.SetPartitions(sel.Layout)
			},
		},
		{
			Number:      StepMount,
			Name:        StepNames[StepMount-1],
			Destructive: true,
			Check: func(_ context.Context, _ *Env, rc *RunContext) error {
				if !rc.PartitionsSet() {
					return unmet(StepMount, StepFormat, "EFI, swap and root partitions are not all set")
				}
				return nil
			},
			Preview: func(env *Env, rc *RunContext, _ Selection) {
				env.Printer.KVBox("Mount points", []output.Row{
					{Key: root, Value: rc.RootPartition},
					{Key: cfg.BootDir(), Value: rc.EFIPartition},
					{Key: "swap", Value: rc.SwapPartition},
				})
			},
			Prompt: func(*RunContext, Selection) string {
				return fmt.Sprintf("Mount the new partitions under %s?", root)
			},
			Plan: func(rc *RunContext, _ Selection) (runner.Plan, error) {
				boot := cfg.BootDir()
				return runner.Plan{
					{Program: "mount", Args: []string{rc.RootPartition, root}, Description: "Mount " + rc.RootPartition + " at " + root},
					{Program: "swapoff", Args: []string{rc.SwapPartition}, Description: "Deactivate stale swap on " + rc.SwapPartition, BestEffort: true},
					{Program: "swapon", Args: []string{rc.SwapPartition}, Description: "Activate swap on " + rc.SwapPartition},
					{Program: "mkdir", Args: []string{"-p", boot}, Description: "Create " + boot},
					{Program: "mount", Args: []string{rc.EFIPartition, boot}, Description: "Mount " + rc.EFIPartition + " at " + boot},
				}, nil
			},
			Commit: func(_ *Env, rc *RunContext, _ Selection) error {
				return rc.MarkMounted()
			},
		},
		{
			Number:     StepClock,
			Name:       StepNames[StepClock-1],
			BestEffort: true,
			Check: func(_ context.Context, _ *Env, rc *RunContext) error {
				if !rc.Mounted {
					return unmet(StepClock, StepMount, "target filesystems are not mounted")
				}
				return nil
			},
			Preview: func(env *Env, _ *RunContext, _ Selection) {
				env.Printer.Info("An accurate clock prevents package-signature validation errors.")
			},
			Plan: func(*RunContext, Selection) (runner.Plan, error) {
				return runner.Plan{{
					Program:     tools.TimeSync,
					Args:        tools.TimeSyncArgs,
					Description: "Synchronize the system clock",
				}}, nil
			},
		},
		{
			Number:      StepBase,
			Name:        StepNames[StepBase-1],
			Destructive: true,
			Check: func(_ context.Context, _ *Env, rc *RunContext) error {
				if !rc.Mounted {
					return unmet(StepBase, StepMount, "target filesystems are not mounted")
				}
				return nil
			},
			Preview: func(env *Env, _ *RunContext, _ Selection) {
				rows := make([]output.Row, len(cfg.Packages.Base))
				for i, pkg := range cfg.Packages.Base {
					rows[i] = output.Row{Key: pkg, Value: packageNotes[pkg]}
				}
				env.Printer.KVBox("Packages to install", rows)
			},
			Prompt: func(*RunContext, Selection) string {
				return "Proceed with base installation?"
			},
			Plan: func(*RunContext, Selection) (runner.Plan, error) {
				return runner.Plan{{
					Program:     tools.Installer,
					Args:        append([]string{root}, cfg.Packages.Base...),
					Description: "Install the base system",
					Mode:        runner.ModeInteractive,
				}}, nil
			},
			Commit: func(_ *Env, rc *RunContext, _ Selection) error {
				return rc.MarkBaseInstalled()
			},
		},
		{
			Number:      StepKernel,
			Name:        StepNames[StepKernel-1],
			Destructive: true,
			Check: func(_ context.Context, _ *Env, rc *RunContext) error {
				if !rc.BaseInstalled {
					return unmet(StepKernel, StepBase, "base system is not installed")
				}
				return nil
			},
			Select: func(ctx context.Context, env *Env, _ *RunContext) (Selection, error) {
				return selectKernel(ctx, env, cfg.Packages.Kernel)
			},
			Prompt: func(_ *RunContext, sel Selection) string {
				return fmt.Sprintf("Install %s + %s?", sel.Kernel.Package(), cfg.Packages.Firmware)
			},
			Plan: func(_ *RunContext, sel Selection) (runner.Plan, error) {
				if !sel.Kernel.Valid() {
					return nil, fmt.Errorf("unknown kernel variant %q", sel.Kernel)
				}
				args := []string{root, sel.Kernel.Package()}
				if cfg.Packages.Firmware != "" {
					args = append(args, cfg.Packages.Firmware)
				}
				return runner.Plan{{
					Program:     tools.Installer,
					Args:        args,
					Description: "Install kernel " + sel.Kernel.Package(),
					Mode:        runner.ModeInteractive,
				}}, nil
			},
			Commit: func(_ *Env, rc *RunContext, sel Selection) error {
				return rc.SetKernel(sel.Kernel)
			},
		},
		{
			Number: StepFinalize,
			Name:   StepNames[StepFinalize-1],
			Check: func(_ context.Context, _ *Env, rc *RunContext) error {
				if rc.Kernel == "" {
					return unmet(StepFinalize, StepKernel, "no kernel installed")
				}
				return nil
			},
			Plan: func(*RunContext, Selection) (runner.Plan, error) {
				fstab := cfg.FstabPath()
				etc := filepath.Dir(fstab)
				return runner.Plan{
					{Program: "mkdir", Args: []string{"-p", etc}, Description: "Create " + etc},
					{
						Program:     tools.FstabGenerator,
						Args:        []string{"-U", root},
						Description: "Append fstab entries to " + fstab,
						Mode:        runner.ModeAppend,
						OutputFile:  fstab,
					},
				}, nil
			},
			Commit: func(_ *Env, rc *RunContext, _ Selection) error {
				return rc.MarkFstabWritten()
			},
			Handoff: &Handoff{
				Preview: func(env *Env, _ *RunContext) {
					env.Printer.KVBox("Post-chroot checklist", postChrootChecklist)
					env.Printer.Info("Type 'exit' or press Ctrl-D to leave the chroot.")
				},
				Prompt: func(*RunContext) string {
					return fmt.Sprintf("Enter the new system with %s now?", tools.Chroot)
				},
				Invocation: func(*RunContext) runner.Invocation {
					return runner.Invocation{
						Program:     tools.Chroot,
						Args:        []string{root},
						Description: "Enter the installed system",
						Mode:        runner.ModeReplace,
					}
				},
				DeclineHint: func(*RunContext) string {
					return fmt.Sprintf("Enter manually any time:  %s %s", tools.Chroot, root)
				},
			},
		},
	}
}

func emptyPlan(*RunContext, Selection) (runner.Plan, error) {
	return nil, nil
}

func selectDisk(ctx context.Context, env *Env, _ *RunContext) (Selection, error) {
	disks, err := env.Disks.ListDisks(ctx)
	if err != nil || len(disks) == 0 {
		env.Printer.Warning("Could not detect disks automatically.")
		path, err := env.Prompter.Input(ctx, "Enter disk path (e.g. /dev/sda)", "/dev/sda")
		if err != nil {
			return Selection{}, err
		}
		path = strings.TrimSpace(path)
		if !strings.HasPrefix(path, "/dev/") {
			return Selection{}, fmt.Errorf("invalid disk path %q: must be under /dev", path)
		}
		return Selection{Disk: Disk{Path: path, Size: "?", Model: noModel}}, nil
	}

	labels := make([]string, len(disks))
	for i, d := range disks {
		labels[i] = d.Label()
	}
	idx, err := env.Prompter.Select(ctx, "Target disk", labels, 0)
	if err != nil {
		return Selection{}, err
	}
	if idx < 0 || idx >= len(disks) {
		return Selection{}, fmt.Errorf("disk choice %d out of range", idx+1)
	}
	return Selection{Disk: disks[idx]}, nil
}

// selectKernel offers the kernel menu with preferred as the default choice.
// An unknown preference falls back to the stable kernel.
func selectKernel(ctx context.Context, env *Env, preferred string) (Selection, error) {
	def := KernelStable
	if preferred != "" {
		k, err := ParseKernelVariant(preferred)
		if err != nil {
			env.Printer.Warning("%v, defaulting to %s.", err, def.Package())
		} else {
			def = k
		}
	}

	rows := make([]output.Row, len(KernelVariants))
	labels := make([]string, len(KernelVariants))
	defIdx := 0
	for i, k := range KernelVariants {
		rows[i] = output.Row{Key: string(k), Value: k.Summary()}
		labels[i] = fmt.Sprintf("%-9s  %s", k.Package(), k.DisplayName())
		if k == def {
			defIdx = i
		}
	}
	env.Printer.KVBox("Kernel variants", rows)

	idx, err := env.Prompter.Select(ctx, "Which kernel do you want to install?", labels, defIdx)
	if err != nil {
		return Selection{}, err
	}
	if idx < 0 || idx >= len(KernelVariants) {
		return Selection{}, fmt.Errorf("kernel choice %d out of range", idx+1)
	}
	k := KernelVariants[idx]
	env.Printer.Info("Selected: %s", k.DisplayName())
	return Selection{Kernel: k}, nil
}
