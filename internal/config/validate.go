package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/pathutil"
	"github.com/xdg/hostgate/internal/rules"
)

// Validate checks that all fields contain valid values:
//   - platform is auto, posix or windows
//   - durations parse and are positive
//   - log.level is one of: debug, info, warn, error (if non-empty)
//   - paths are absolute once ~ is expanded
//   - the provider command, if set, has a non-empty program
//
// Returns nil if the config is valid, or an error naming the invalid field.
func Validate(cfg *Config) error {
	if _, err := rules.ParsePlatform(cfg.Platform); err != nil {
		return fmt.Errorf("platform: invalid value %q, must be one of: auto, posix, windows", cfg.Platform)
	}

	if err := validateOptionalPath(cfg.ProjectRoot, "project_root"); err != nil {
		return err
	}
	if err := validateDuration(cfg.Command.Timeout, "command.timeout"); err != nil {
		return err
	}
	if err := validateOptionalPath(cfg.Command.Workdir, "command.workdir"); err != nil {
		return err
	}

	for i, p := range cfg.Paths.ExtraRestricted {
		if err := validatePath(p, fmt.Sprintf("paths.extra_restricted[%d]", i)); err != nil {
			return err
		}
	}

	for i, p := range cfg.Filesystem.Roots {
		if err := validatePath(p, fmt.Sprintf("filesystem.roots[%d]", i)); err != nil {
			return err
		}
	}
	prov := cfg.Filesystem.Provider
	if len(prov.Command) > 0 && strings.TrimSpace(prov.Command[0]) == "" {
		return fmt.Errorf("filesystem.provider.command: program name is empty")
	}
	if err := validateDuration(prov.StartTimeout, "filesystem.provider.start_timeout"); err != nil {
		return err
	}
	if err := validateDuration(prov.CallTimeout, "filesystem.provider.call_timeout"); err != nil {
		return err
	}

	if cfg.Log.Level != "" {
		if _, ok := clog.LookupLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
		}
	}
	if err := validateOptionalPath(cfg.Log.File, "log.file"); err != nil {
		return err
	}
	if err := validateOptionalPath(cfg.Log.AuditFile, "log.audit_file"); err != nil {
		return err
	}

	return nil
}

// validateDuration validates that a non-empty duration string parses and is
// positive.
func validateDuration(d, field string) error {
	if d == "" {
		return nil
	}
	v, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, d)
	}
	if v <= 0 {
		return fmt.Errorf("%s: must be positive, got %q", field, d)
	}
	return nil
}

func validateOptionalPath(p, field string) error {
	if p == "" {
		return nil
	}
	return validatePath(p, field)
}

// validatePath requires p to be absolute after ~ expansion.
func validatePath(p, field string) error {
	if p == "" {
		return fmt.Errorf("%s: empty path", field)
	}
	if !filepath.IsAbs(pathutil.ExpandHome(p)) {
		return fmt.Errorf("%s: path %q must be absolute", field, p)
	}
	return nil
}
