// Package rules holds the immutable rule tables that drive command and path
// validation. A RuleSet is selected once at startup for the host platform and
// passed to validators by reference; nothing in this package reads user input.
package rules

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// Platform identifies a shell/filesystem family.
type Platform string

const (
	// PlatformPOSIX covers Linux, macOS and the BSDs (sh-compatible shells).
	PlatformPOSIX Platform = "posix"
	// PlatformWindows covers cmd.exe and PowerShell hosts.
	PlatformWindows Platform = "windows"
)

// Detect returns the platform family of the running host.
func Detect() Platform {
	return platformFor(runtime.GOOS)
}

func platformFor(goos string) Platform {
	if goos == "windows" {
		return PlatformWindows
	}
	return PlatformPOSIX
}

// ParsePlatform parses a platform name. Empty and "auto" select Detect().
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Detect(), nil
	case string(PlatformPOSIX), "linux", "darwin", "unix":
		return PlatformPOSIX, nil
	case string(PlatformWindows):
		return PlatformWindows, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// Verdict is the allow/deny result of a validator.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Allow returns a passing verdict.
func Allow() Verdict {
	return Verdict{Valid: true}
}

// Deny returns a failing verdict with a formatted reason.
func Deny(format string, args ...any) Verdict {
	return Verdict{Valid: false, Reason: fmt.Sprintf(format, args...)}
}

// Safe reports whether a path verdict allows access. It is Valid under the
// name used by path validation.
func (v Verdict) Safe() bool {
	return v.Valid
}

// InjectionPattern is a token whose presence in a command indicates an
// attempt to chain, substitute or redirect.
type InjectionPattern struct {
	Token       string
	Description string
	// Leading restricts the match to the start of the trimmed command.
	Leading bool
}

// Matches reports whether the pattern occurs in cmd.
func (p InjectionPattern) Matches(cmd string) bool {
	if p.Leading {
		return strings.HasPrefix(strings.TrimSpace(cmd), p.Token)
	}
	return strings.Contains(cmd, p.Token)
}

// RuleSet is the static, platform-selected configuration for both validators.
// The zero value denies everything. Accessors return copies so callers cannot
// alter a shared RuleSet.
type RuleSet struct {
	platform Platform

	dangerousSubstrings []string
	injectionPatterns   []InjectionPattern
	whitelistPrefixes   []string
	whitelistExact      []string
	deniedArguments     map[string][]string

	restrictedRoots      []string
	allowedRoots         []string
	sensitiveSubpaths    []string
	executableExtensions []string
	blockedExtensions    []string
	systemBinDirs        []string
	reservedNames        []string
	pathMetacharacters   string

	caseInsensitivePaths bool
	driveLetters         bool
}

// ForPlatform returns the built-in RuleSet for p.
func ForPlatform(p Platform) *RuleSet {
	if p == PlatformWindows {
		return windowsRules()
	}
	return posixRules()
}

// WithExtraRestricted returns a copy of rs with additional restricted roots.
// Rule sets can be tightened this way but never loosened.
func (rs *RuleSet) WithExtraRestricted(roots ...string) *RuleSet {
	out := rs.clone()
	for _, r := range roots {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(out.restrictedRoots, r) {
			continue
		}
		out.restrictedRoots = append(out.restrictedRoots, r)
	}
	return out
}

func (rs *RuleSet) clone() *RuleSet {
	out := *rs
	out.dangerousSubstrings = slices.Clone(rs.dangerousSubstrings)
	out.injectionPatterns = slices.Clone(rs.injectionPatterns)
	out.whitelistPrefixes = slices.Clone(rs.whitelistPrefixes)
	out.whitelistExact = slices.Clone(rs.whitelistExact)
	out.deniedArguments = cloneArgs(rs.deniedArguments)
	out.restrictedRoots = slices.Clone(rs.restrictedRoots)
	out.allowedRoots = slices.Clone(rs.allowedRoots)
	out.sensitiveSubpaths = slices.Clone(rs.sensitiveSubpaths)
	out.executableExtensions = slices.Clone(rs.executableExtensions)
	out.blockedExtensions = slices.Clone(rs.blockedExtensions)
	out.systemBinDirs = slices.Clone(rs.systemBinDirs)
	out.reservedNames = slices.Clone(rs.reservedNames)
	return &out
}

// Platform returns the platform family this RuleSet was built for.
func (rs *RuleSet) Platform() Platform { return rs.platform }

// DangerousSubstrings returns the lower-case blacklist entries.
func (rs *RuleSet) DangerousSubstrings() []string { return slices.Clone(rs.dangerousSubstrings) }

// InjectionPatterns returns the injection tokens in the order they are checked.
func (rs *RuleSet) InjectionPatterns() []InjectionPattern {
	return slices.Clone(rs.injectionPatterns)
}

// WhitelistPrefixes returns command prefixes that may be followed by arguments.
func (rs *RuleSet) WhitelistPrefixes() []string { return slices.Clone(rs.whitelistPrefixes) }

// WhitelistExact returns commands that are allowed only without arguments.
func (rs *RuleSet) WhitelistExact() []string { return slices.Clone(rs.whitelistExact) }

// DeniedArguments returns, per whitelist prefix, the argument forms that turn
// the command from a read into a write. A form of "--name" also denies
// "--name=value" and unambiguous abbreviations, "-x" also denies a cluster
// containing x, and "/name" denies any argument starting with it or with
// "-name".
func (rs *RuleSet) DeniedArguments() map[string][]string { return cloneArgs(rs.deniedArguments) }

func cloneArgs(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

// RestrictedRoots returns always-denied path prefixes. Entries containing '*'
// are glob patterns matched component by component.
func (rs *RuleSet) RestrictedRoots() []string { return slices.Clone(rs.restrictedRoots) }

// AllowedRoots returns top-level directories permitted for shallow paths.
func (rs *RuleSet) AllowedRoots() []string { return slices.Clone(rs.allowedRoots) }

// SensitiveSubpaths returns path fragments denied under any root.
func (rs *RuleSet) SensitiveSubpaths() []string { return slices.Clone(rs.sensitiveSubpaths) }

// ExecutableExtensions returns extensions that require project-root residence.
func (rs *RuleSet) ExecutableExtensions() []string { return slices.Clone(rs.executableExtensions) }

// BlockedExtensions returns extensions that are always denied.
func (rs *RuleSet) BlockedExtensions() []string { return slices.Clone(rs.blockedExtensions) }

// SystemBinDirs returns directories where executables are never accessible.
func (rs *RuleSet) SystemBinDirs() []string { return slices.Clone(rs.systemBinDirs) }

// ReservedNames returns upper-case device names that may not appear as a path component.
func (rs *RuleSet) ReservedNames() []string { return slices.Clone(rs.reservedNames) }

// PathMetacharacters returns the characters that may not appear in a path.
func (rs *RuleSet) PathMetacharacters() string { return rs.pathMetacharacters }

// CaseInsensitivePaths reports whether path comparisons ignore case.
func (rs *RuleSet) CaseInsensitivePaths() bool { return rs.caseInsensitivePaths }

// DriveLetters reports whether drive-letter prefixes are legitimate on this platform.
func (rs *RuleSet) DriveLetters() bool { return rs.driveLetters }
