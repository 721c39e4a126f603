// Package config provides configuration loading and management for artixinstall.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The defaults describe a stock Artix OpenRC install onto /mnt,
// so the installer works without any configuration file. The command line itself
// only carries --dry-run; everything else lives here.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [ToolsConfig] names the external programs each step invokes
//   - [PackagesConfig] lists what basestrap installs
//
// Configuration priority (highest to lowest):
//  1. Environment variables (ARTIXINSTALL_ prefix, a .env file is honoured)
//  2. Config file specified by ARTIXINSTALL_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/artixinstall/config.yaml
//  4. ./artixinstall.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"artixinstall/internal/logging"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// MountRoot is where the target root filesystem is mounted.
	// The EFI partition is mounted at MountRoot/boot and fstab is written to
	// MountRoot/etc/fstab. Default: "/mnt"
	MountRoot string `mapstructure:"mount_root"`

	// Packages lists the packages installed by the base and kernel steps.
	Packages PackagesConfig `mapstructure:"packages"`

	// Tools names the external programs invoked by each step.
	Tools ToolsConfig `mapstructure:"tools"`

	// Firmware contains environment probe settings.
	Firmware FirmwareConfig `mapstructure:"firmware"`

	// Simulation contains dry-run presentation settings.
	Simulation SimulationConfig `mapstructure:"simulation"`

	// Logging contains diagnostic logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
}

// PackagesConfig lists the packages handed to the base-system installer.
type PackagesConfig struct {
	// Base is the package set installed by the base system step.
	// Default: ["base", "base-devel", "openrc", "elogind-openrc"]
	Base []string `mapstructure:"base"`

	// Firmware is installed alongside the chosen kernel.
	// Default: "linux-firmware"
	Firmware string `mapstructure:"firmware"`

	// Kernel is the variant preselected in the kernel menu: stable, lts or
	// zen, or the package name. Default: "stable"
	Kernel string `mapstructure:"kernel"`
}

// ToolsConfig names the external programs used by the installation steps.
//
// Only the program names are configurable. Argument shapes are fixed by the
// step definitions.
type ToolsConfig struct {
	// Partitioner is the interactive partition editor. Default: "cfdisk"
	Partitioner string `mapstructure:"partitioner"`

	// TimeSync is the NTP client used for the clock step. Default: "ntpd"
	TimeSync string `mapstructure:"time_sync"`

	// TimeSyncArgs are passed to TimeSync. Default: ["-gq"]
	TimeSyncArgs []string `mapstructure:"time_sync_args"`

	// Installer bootstraps packages into the target root. Default: "basestrap"
	Installer string `mapstructure:"installer"`

	// FstabGenerator prints fstab entries for a mounted tree. Default: "fstabgen"
	FstabGenerator string `mapstructure:"fstab_generator"`

	// Chroot enters the installed system. Default: "artix-chroot"
	Chroot string `mapstructure:"chroot"`
}

// FirmwareConfig contains settings for the environment probe.
type FirmwareConfig struct {
	// EFIVarsPath is checked for existence to detect UEFI boot.
	// Default: "/sys/firmware/efi/efivars"
	EFIVarsPath string `mapstructure:"efivars_path"`
}

// SimulationConfig controls how dry-run invocations are presented.
type SimulationConfig struct {
	// Delay is slept after each simulated invocation so the operator can
	// follow the transcript. Default: 0 (no delay)
	Delay time.Duration `mapstructure:"delay"`
}

// LoggingConfig contains slog settings for diagnostic output on stderr.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: "warn"
	Level string `mapstructure:"level"`

	// Format is one of tint, text, json. Default: "tint"
	Format string `mapstructure:"format"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MountRoot: "/mnt",
		Packages: PackagesConfig{
			Base:     []string{"base", "base-devel", "openrc", "elogind-openrc"},
			Firmware: "linux-firmware",
			Kernel:   "stable",
		},
		Tools: ToolsConfig{
			Partitioner:    "cfdisk",
			TimeSync:       "ntpd",
			TimeSyncArgs:   []string{"-gq"},
			Installer:      "basestrap",
			FstabGenerator: "fstabgen",
			Chroot:         "artix-chroot",
		},
		Firmware: FirmwareConfig{
			EFIVarsPath: "/sys/firmware/efi/efivars",
		},
		Logging: LoggingConfig{
			Level:  logging.DefaultLevel,
			Format: logging.DefaultFormat,
		},
	}
}

// Validate reports the first setting that would make a step build a broken plan.
func (c *Config) Validate() error {
	if c.MountRoot == "" || !filepath.IsAbs(c.MountRoot) {
		return fmt.Errorf("mount_root must be an absolute path, got %q", c.MountRoot)
	}
	if len(c.Packages.Base) == 0 {
		return fmt.Errorf("packages.base must list at least one package")
	}
	tools := map[string]string{
		"tools.partitioner":     c.Tools.Partitioner,
		"tools.time_sync":       c.Tools.TimeSync,
		"tools.installer":       c.Tools.Installer,
		"tools.fstab_generator": c.Tools.FstabGenerator,
		"tools.chroot":          c.Tools.Chroot,
	}
	for key, value := range tools {
		if value == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	if c.Simulation.Delay < 0 {
		return fmt.Errorf("simulation.delay must not be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of tint, text, json, got %q", c.Logging.Format)
	}
	return nil
}

// BootDir is the mount point of the EFI partition inside the target root.
func (c *Config) BootDir() string {
	return filepath.Join(c.MountRoot, "boot")
}

// FstabPath is the fstab file of the installed system.
func (c *Config) FstabPath() string {
	return filepath.Join(c.MountRoot, "etc", "fstab")
}
