package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment variable the loader reads.
const EnvPrefix = "ARTIXINSTALL"

// ConfigPathEnv names a config file that takes priority over discovery.
const ConfigPathEnv = EnvPrefix + "_CONFIG_PATH"

// Loader handles Viper-based configuration loading.
//
// Create instances with [NewLoader]. A Loader is single-use: call either
// [Loader.Load] or [Loader.LoadFromFile] once.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a [Loader] with environment overrides enabled.
//
// Nested keys map to underscores (mount_root -> ARTIXINSTALL_MOUNT_ROOT,
// tools.installer -> ARTIXINSTALL_TOOLS_INSTALLER). The logging keys are also
// bound to the shorter ARTIXINSTALL_LOG_LEVEL and ARTIXINSTALL_LOG_FORMAT.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOG_LEVEL")
	_ = v.BindEnv("logging.format", EnvPrefix+"_LOG_FORMAT")

	l := &Loader{v: v}
	l.setDefaults()
	return l
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("mount_root", d.MountRoot)
	l.v.SetDefault("packages.base", d.Packages.Base)
	l.v.SetDefault("packages.firmware", d.Packages.Firmware)
	l.v.SetDefault("packages.kernel", d.Packages.Kernel)
	l.v.SetDefault("tools.partitioner", d.Tools.Partitioner)
	l.v.SetDefault("tools.time_sync", d.Tools.TimeSync)
	l.v.SetDefault("tools.time_sync_args", d.Tools.TimeSyncArgs)
	l.v.SetDefault("tools.installer", d.Tools.Installer)
	l.v.SetDefault("tools.fstab_generator", d.Tools.FstabGenerator)
	l.v.SetDefault("tools.chroot", d.Tools.Chroot)
	l.v.SetDefault("firmware.efivars_path", d.Firmware.EFIVarsPath)
	l.v.SetDefault("simulation.delay", d.Simulation.Delay)
	l.v.SetDefault("logging.level", d.Logging.Level)
	l.v.SetDefault("logging.format", d.Logging.Format)
}

// Load resolves the config file by priority and returns the merged [Config].
//
// A missing config file is not an error; defaults and environment variables
// still apply. A config file named by ARTIXINSTALL_CONFIG_PATH must exist.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return l.LoadFromFile(path)
	}

	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return l.LoadFromFile(candidate)
		}
	}

	return l.unmarshal()
}

// LoadFromFile reads a specific config file. The format is taken from the
// file extension (yaml, json, toml).
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// ConfigDir returns the platform config directory for artixinstall.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "artixinstall"), nil
}

// DefaultConfigPath returns the user-level config file location.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func searchPaths() []string {
	var paths []string
	// No HOME is common on a live ISO shell; the local file still applies.
	if p, err := DefaultConfigPath(); err == nil {
		paths = append(paths, p)
	}
	return append(paths, "artixinstall.yaml")
}
