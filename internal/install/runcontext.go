// Package install defines the eight installation steps and the state they
// share.
//
// [Steps] builds the fixed, ordered step table. Each [Step] checks its
// precondition against the [RunContext], optionally asks the operator to
// choose something, builds a [runner.Plan] and, once the plan succeeded,
// records its postcondition in the RunContext. Steps never execute commands
// themselves and never look at the dry-run flag; both concerns belong to
// the runner.
package install

import (
	"errors"
	"fmt"

	"artixinstall/internal/probe"
)

// ErrAlreadySet is returned when a step tries to overwrite a RunContext
// field that an earlier step already recorded.
var ErrAlreadySet = errors.New("already set")

// RunContext is the state of one installation run. It is owned by the
// orchestrator and passed by pointer to each step in turn.
//
// Fields are exported so tests can start from any point in the sequence.
// Steps write through the Set and Mark methods, which refuse to overwrite.
type RunContext struct {
	Simulated bool
	Firmware  probe.Firmware

	TargetDisk    string
	EFIPartition  string
	SwapPartition string
	RootPartition string

	Kernel KernelVariant

	Mounted       bool
	BaseInstalled bool
	FstabWritten  bool
}

// NewRunContext creates an empty [RunContext].
func NewRunContext(simulated bool) *RunContext {
	return &RunContext{Simulated: simulated}
}

func alreadySet(field, current string) error {
	return fmt.Errorf("%s %w to %q", field, ErrAlreadySet, current)
}

func (rc *RunContext) SetFirmware(f probe.Firmware) error {
	if rc.Firmware != "" {
		return alreadySet("firmware mode", string(rc.Firmware))
	}
	rc.Firmware = f
	return nil
}

func (rc *RunContext) SetTargetDisk(disk string) error {
	if rc.TargetDisk != "" {
		return alreadySet("target disk", rc.TargetDisk)
	}
	if disk == "" {
		return errors.New("target disk must not be empty")
	}
	rc.TargetDisk = disk
	return nil
}

// SetPartitions records all three partitions at once.
func (rc *RunContext) SetPartitions(l Layout) error {
	switch {
	case rc.EFIPartition != "":
		return alreadySet("EFI partition", rc.EFIPartition)
	case rc.SwapPartition != "":
		return alreadySet("swap partition", rc.SwapPartition)
	case rc.RootPartition != "":
		return alreadySet("root partition", rc.RootPartition)
	}
	rc.EFIPartition = l.EFI
	rc.SwapPartition = l.Swap
	rc.RootPartition = l.Root
	return nil
}

func (rc *RunContext) SetKernel(k KernelVariant) error {
	if rc.Kernel != "" {
		return alreadySet("kernel variant", string(rc.Kernel))
	}
	if !k.Valid() {
		return fmt.Errorf("unknown kernel variant %q", k)
	}
	rc.Kernel = k
	return nil
}

func (rc *RunContext) MarkMounted() error {
	if rc.Mounted {
		return alreadySet("mount state", "mounted")
	}
	rc.Mounted = true
	return nil
}

func (rc *RunContext) MarkBaseInstalled() error {
	if rc.BaseInstalled {
		return alreadySet("base system", "installed")
	}
	rc.BaseInstalled = true
	return nil
}

func (rc *RunContext) MarkFstabWritten() error {
	if rc.FstabWritten {
		return alreadySet("fstab", "written")
	}
	rc.FstabWritten = true
	return nil
}

// PartitionsSet reports whether the formatting step recorded its partitions.
func (rc *RunContext) PartitionsSet() bool {
	return rc.EFIPartition != "" && rc.SwapPartition != "" && rc.RootPartition != ""
}
