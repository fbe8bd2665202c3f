package config

import (
	"os"
	"slices"
	"time"

	"tux/pkg/tuxerr"

	"github.com/BurntSushi/toml"
)

// Accepted values for the enumerated settings.
var (
	syncMethods  = []string{"go-git", "git"}
	orders       = []string{"raw", "dedupe", "topological"}
	confirmModes = []string{"normalized", "strict"}
)

// Config represents the complete tux configuration.
type Config struct {
	Repository RepositoryConfig `toml:"repository"`
	Install    InstallConfig    `toml:"install"`
	Network    NetworkConfig    `toml:"network"`
	Output     OutputConfig     `toml:"output"`
	History    HistoryConfig    `toml:"history"`
}

// RepositoryConfig locates the package catalog.
type RepositoryConfig struct {
	// LocatorFile holds the remote origin address on a single line.
	LocatorFile string `toml:"locator_file"`

	// MirrorDir is where the catalog is cloned.
	MirrorDir string `toml:"mirror_dir"`

	// SyncMethod selects the cloner: "go-git" (in-process) or "git" (binary).
	SyncMethod string `toml:"sync_method"`
}

// InstallConfig controls the install orchestrator.
type InstallConfig struct {
	// StagingDir receives one directory per fetched package.
	StagingDir string `toml:"staging_dir"`

	// Order is one of "raw", "dedupe" or "topological".
	Order string `toml:"order"`

	// Confirm selects how the answer to the prompt is read: "normalized" or "strict".
	Confirm string `toml:"confirm"`

	// AutoConfirm skips confirmation prompts when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm"`

	// DryRun shows the install set without fetching when true.
	DryRun bool `toml:"dry_run"`
}

// NetworkConfig tunes artifact downloads.
type NetworkConfig struct {
	Timeout   Duration `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`

	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`
}

// HistoryConfig controls the operation log.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`

	// Path of the history database. Empty selects HistoryPath().
	Path string `toml:"path"`

	// MaxAge drops entries older than this after each install. Zero keeps everything.
	MaxAge Duration `toml:"max_age"`
}

// Duration is a time.Duration written as a string such as "60s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Repository: RepositoryConfig{
			LocatorFile: DefaultLocatorFile,
			MirrorDir:   DefaultMirrorDir,
			SyncMethod:  "go-git",
		},
		Install: InstallConfig{
			StagingDir: DefaultStagingDir,
			Order:      "dedupe",
			Confirm:    "normalized",
		},
		Network: NetworkConfig{
			Timeout:   Duration{60 * time.Second},
			UserAgent: "tux/0.1.0",
		},
		Output: OutputConfig{
			Color:   true,
			Unicode: true,
			Verbose: false,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindConfiguration, err, "failed to parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	checks := []struct {
		key, value string
		allowed    []string
	}{
		{"repository.sync_method", c.Repository.SyncMethod, syncMethods},
		{"install.order", c.Install.Order, orders},
		{"install.confirm", c.Install.Confirm, confirmModes},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return tuxerr.New(tuxerr.KindConfiguration, "invalid %s %q (want one of %v)", ch.key, ch.value, ch.allowed)
		}
	}

	if c.Network.Timeout.Duration <= 0 {
		return tuxerr.New(tuxerr.KindConfiguration, "network.timeout must be positive, got %s", c.Network.Timeout)
	}
	if c.History.MaxAge.Duration < 0 {
		return tuxerr.New(tuxerr.KindConfiguration, "history.max_age must not be negative, got %s", c.History.MaxAge)
	}

	for key, value := range map[string]string{
		"repository.locator_file": c.Repository.LocatorFile,
		"repository.mirror_dir":   c.Repository.MirrorDir,
		"install.staging_dir":     c.Install.StagingDir,
	} {
		if value == "" {
			return tuxerr.New(tuxerr.KindConfiguration, "%s must not be empty", key)
		}
	}

	return nil
}

// HistoryFile returns the configured history database path.
func (c *Config) HistoryFile() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return HistoryPath()
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
