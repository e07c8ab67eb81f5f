package config

import (
	"errors"
	"fmt"
	"os"
)

// WriteDefault creates the default configuration file with helpful comments.
// If the file already exists, it returns nil without overwriting.
// The file is written with 0600 permissions (user read/write only).
func WriteDefault() error {
	path := Path()

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := EnsureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
