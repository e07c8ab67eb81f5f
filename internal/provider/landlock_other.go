//go:build !linux

package provider

import "github.com/xdg/hostgate/internal/clog"

// Confine is a no-op outside Linux; path confinement in the server still applies.
func Confine(roots []string) error {
	clog.Debug("landlock not available on this platform, relying on path checks for %d root(s)", len(roots))
	return nil
}
