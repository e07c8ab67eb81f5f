package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/executor"
	"github.com/xdg/hostgate/internal/pathutil"
	"github.com/xdg/hostgate/internal/provider"
	"github.com/xdg/hostgate/internal/rules"
)

// Load loads the configuration from path, or from Path() when path is empty.
// A missing default file yields Default() and a commented template is
// written in its place. A missing explicit path is an error. All paths
// containing ~ are expanded to the home directory.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = Path()
	}
	clog.Debug("config: loading %s", path)

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's own config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			clog.Debug("config: file not found, creating defaults")
			if writeErr := WriteDefault(); writeErr != nil {
				clog.Warn("config: failed to create default config: %v", writeErr)
			}
			cfg := Default()
			expandPaths(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	expandPaths(cfg)
	return cfg, nil
}

// expandPaths expands ~ to the home directory in all path fields.
func expandPaths(cfg *Config) {
	cfg.ProjectRoot = pathutil.ExpandHome(cfg.ProjectRoot)
	cfg.Command.Workdir = pathutil.ExpandHome(cfg.Command.Workdir)
	for i, p := range cfg.Paths.ExtraRestricted {
		cfg.Paths.ExtraRestricted[i] = pathutil.ExpandHome(p)
	}
	for i, p := range cfg.Filesystem.Roots {
		cfg.Filesystem.Roots[i] = pathutil.ExpandHome(p)
	}
	cfg.Log.File = pathutil.ExpandHome(cfg.Log.File)
	cfg.Log.AuditFile = pathutil.ExpandHome(cfg.Log.AuditFile)
}

// RulePlatform returns the configured platform, detecting it from the host
// for "auto" or an empty value.
func (c *Config) RulePlatform() (rules.Platform, error) {
	return rules.ParsePlatform(c.Platform)
}

// LogLevel returns the configured log level, defaulting to info.
func (c *Config) LogLevel() clog.Level {
	return clog.ParseLevel(c.Log.Level)
}

// CommandTimeout returns command.timeout as a duration.
func (c *Config) CommandTimeout() time.Duration {
	return durationOr(c.Command.Timeout, executor.DefaultTimeout)
}

// ProviderStartTimeout returns filesystem.provider.start_timeout as a duration.
func (c *Config) ProviderStartTimeout() time.Duration {
	return durationOr(c.Filesystem.Provider.StartTimeout, provider.DefaultStartTimeout)
}

// ProviderCallTimeout returns filesystem.provider.call_timeout as a duration.
func (c *Config) ProviderCallTimeout() time.Duration {
	return durationOr(c.Filesystem.Provider.CallTimeout, provider.DefaultCallTimeout)
}

// LandlockEnabled reports whether the built-in provider confines itself.
// It defaults to true.
func (c *Config) LandlockEnabled() bool {
	return c.Filesystem.Provider.Landlock == nil || *c.Filesystem.Provider.Landlock
}

// ProviderRoots returns filesystem.roots, or projectRoot when none are set.
func (c *Config) ProviderRoots(projectRoot string) []string {
	if len(c.Filesystem.Roots) > 0 {
		return append([]string(nil), c.Filesystem.Roots...)
	}
	return []string{projectRoot}
}
