// Package config provides the hostgate configuration types. They map to the
// YAML file at ~/.config/hostgate/config.yaml.
package config

// Config represents the hostgate configuration.
type Config struct {
	// Platform selects the rule set: auto, posix or windows.
	Platform string `yaml:"platform,omitempty"`
	// ProjectRoot is the base for relative paths. Empty means the working
	// directory.
	ProjectRoot string           `yaml:"project_root,omitempty"`
	Command     CommandConfig    `yaml:"command,omitempty"`
	Paths       PathsConfig      `yaml:"paths,omitempty"`
	Filesystem  FilesystemConfig `yaml:"filesystem,omitempty"`
	Log         LogConfig        `yaml:"log,omitempty"`
}

// CommandConfig contains command execution settings.
type CommandConfig struct {
	Timeout string `yaml:"timeout,omitempty"`
	Workdir string `yaml:"workdir,omitempty"`
}

// PathsConfig contains path validation settings. Entries can only add
// restrictions.
type PathsConfig struct {
	ExtraRestricted []string `yaml:"extra_restricted,omitempty"`
}

// FilesystemConfig contains settings for the filesystem provider.
type FilesystemConfig struct {
	// Roots are the directories the provider may access. Empty means the
	// project root.
	Roots    []string       `yaml:"roots,omitempty"`
	Provider ProviderConfig `yaml:"provider,omitempty"`
}

// ProviderConfig describes how the provider process is started.
type ProviderConfig struct {
	// Command is the provider argv. Empty runs the built-in provider.
	Command      []string `yaml:"command,omitempty"`
	StartTimeout string   `yaml:"start_timeout,omitempty"`
	CallTimeout  string   `yaml:"call_timeout,omitempty"`
	Landlock     *bool    `yaml:"landlock,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	File      string `yaml:"file,omitempty"`
	Level     string `yaml:"level,omitempty"`
	AuditFile string `yaml:"audit_file,omitempty"`
}
