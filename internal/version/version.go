// Package version provides version information for hostgate.
// The Version variable is set at build time via ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current version of hostgate.
// Set at build time via: -ldflags "-X github.com/xdg/hostgate/internal/version.Version=v1.0.0"
// Defaults to "dev" for development builds.
var Version = "dev"

// String returns a one-line description for `hostgate --version`.
// Development builds include the VCS revision when the toolchain recorded it.
func String() string {
	return describe(Version, revision(), runtime.Version())
}

func describe(version, rev, goVersion string) string {
	if rev != "" {
		return fmt.Sprintf("%s (%s, %s)", version, rev, goVersion)
	}
	return fmt.Sprintf("%s (%s)", version, goVersion)
}

// revision returns the short VCS revision embedded in the binary, if any.
func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
