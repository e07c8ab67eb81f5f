package config

import (
	"time"

	"github.com/xdg/hostgate/internal/executor"
	"github.com/xdg/hostgate/internal/provider"
)

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// Default returns a Config with all defaults populated.
func Default() *Config {
	return &Config{
		Platform: "auto",
		Command: CommandConfig{
			Timeout: executor.DefaultTimeout.String(),
		},
		Filesystem: FilesystemConfig{
			Provider: ProviderConfig{
				StartTimeout: provider.DefaultStartTimeout.String(),
				CallTimeout:  provider.DefaultCallTimeout.String(),
				Landlock:     boolPtr(true),
			},
		},
		Log: LogConfig{
			File:      "~/.local/state/hostgate/hostgate.log",
			Level:     "info",
			AuditFile: "~/.local/state/hostgate/audit.log",
		},
	}
}

// defaultConfigTemplate is written on first load. Every setting is commented
// out so the file documents the defaults without pinning them.
const defaultConfigTemplate = `# hostgate configuration
#
# Rule tables are built in. The only rule setting is paths.extra_restricted,
# which can add restricted roots but never remove one.

# Rule set: auto (from the host OS), posix or windows.
# platform: auto

# Base directory for relative paths. Empty means the working directory.
# project_root: ""

# command:
#   timeout: 30s
#   workdir: ""

# paths:
#   extra_restricted:
#     - /srv/secrets
#     - /home/*/.password-store

# filesystem:
#   # Directories the provider may touch. Empty means project_root.
#   roots: []
#   provider:
#     # Empty runs the built-in provider (hostgate provider serve).
#     command: []
#     start_timeout: 10s
#     call_timeout: 30s
#     # Linux only: confine the built-in provider with Landlock.
#     landlock: true

# log:
#   file: ~/.local/state/hostgate/hostgate.log
#   level: info        # debug, info, warn, error
#   audit_file: ~/.local/state/hostgate/audit.log
`

// durationOr parses s, returning def when s is empty or invalid. Values are
// checked by Validate before they reach here.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
