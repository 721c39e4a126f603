// Package probe inspects the host before the installer touches anything.
//
// [Probe.Detect] reports the firmware mode and whether the process has root
// privilege. [Probe.Require] turns a missing privilege into a hard error.
// In dry-run mode both checks are bypassed and the host always looks like a
// privileged UEFI machine.
package probe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Firmware is the boot firmware of the host.
type Firmware string

const (
	FirmwareUEFI Firmware = "UEFI"
	FirmwareBIOS Firmware = "BIOS"
)

// DefaultEFIVarsPath exists only on hosts booted through UEFI.
const DefaultEFIVarsPath = "/sys/firmware/efi/efivars"

// ErrNotRoot is returned by [Probe.Require] when the installer is not
// running as root outside dry-run mode.
var ErrNotRoot = errors.New("artixinstall must be run as root (try sudo, or pass --dry-run)")

// EnvironmentError reports a host check that could not be completed.
type EnvironmentError struct {
	Check string
	Err   error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment check %q failed: %v", e.Check, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// Environment is what [Probe.Detect] found.
type Environment struct {
	Firmware    Firmware
	PrivilegeOK bool
}

// Probe detects host properties. Its fields are replaceable for tests.
type Probe struct {
	// EFIVarsPath is checked for existence to detect UEFI.
	EFIVarsPath string

	// Geteuid returns the effective user id.
	Geteuid func() int

	stat func(name string) (fs.FileInfo, error)
}

// New creates a [Probe] for the given firmware indicator path. An empty path
// uses [DefaultEFIVarsPath].
func New(efiVarsPath string) *Probe {
	if efiVarsPath == "" {
		efiVarsPath = DefaultEFIVarsPath
	}
	return &Probe{
		EFIVarsPath: efiVarsPath,
		Geteuid:     os.Geteuid,
		stat:        os.Stat,
	}
}

// Detect inspects the host. When simulated is true the host is not inspected
// at all and a privileged UEFI environment is returned.
func (p *Probe) Detect(simulated bool) (Environment, error) {
	if simulated {
		return Environment{Firmware: FirmwareUEFI, PrivilegeOK: true}, nil
	}

	env := Environment{
		Firmware:    FirmwareBIOS,
		PrivilegeOK: p.geteuid() == 0,
	}

	stat := p.stat
	if stat == nil {
		stat = os.Stat
	}
	_, err := stat(p.EFIVarsPath)
	switch {
	case err == nil:
		env.Firmware = FirmwareUEFI
	case errors.Is(err, fs.ErrNotExist):
	default:
		return env, &EnvironmentError{Check: "firmware", Err: err}
	}

	return env, nil
}

// Require fails with [ErrNotRoot] when env lacks privilege and the run is
// not simulated.
func (p *Probe) Require(env Environment, simulated bool) error {
	if simulated || env.PrivilegeOK {
		return nil
	}
	return &EnvironmentError{Check: "privilege", Err: ErrNotRoot}
}

func (p *Probe) geteuid() int {
	if p.Geteuid == nil {
		return os.Geteuid()
	}
	return p.Geteuid()
}
