// Package pathguard decides whether a filesystem path may be read, written or
// listed on behalf of an agent.
//
// IsSafe runs these stages in order and stops at the first failure:
//
//  1. Shape: non-empty, no NUL, at most MaxPathLength bytes
//  2. Resolve to an absolute, cleaned path (the input is never modified)
//  3. Traversal scan of the original string, including encoded variants
//  4. Dangerous names: device names, blocked extensions, drive/UNC prefixes,
//     shell metacharacters
//  5. Restricted roots (exact prefix and glob entries)
//  6. Sensitive subpaths under any root
//  7. Shallow paths (depth <= 2) must sit under an allowed root
//  8. Executables must live under the project root, outside system bin dirs
//  9. Symlinks: the link target, and the canonical form when an ancestor is a
//     link, are validated recursively
package pathguard

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xdg/hostgate/internal/pathutil"
	"github.com/xdg/hostgate/internal/rules"
)

const (
	// MaxPathLength is the longest path accepted, in bytes.
	MaxPathLength = 4096
	// MaxSymlinkDepth bounds recursive symlink resolution.
	MaxSymlinkDepth = 40
	// shallowDepth is the deepest path that needs an allowed root.
	shallowDepth = 2
)

// Options carries host-specific locations the validator needs. Zero values are
// filled from the running process.
type Options struct {
	// ProjectRoot is the base for relative paths and the only place
	// executables may live. Defaults to the working directory.
	ProjectRoot string
	// HomeDir is added to the allowed roots. Defaults to os.UserHomeDir.
	HomeDir string
	// TempDir is added to the allowed roots. Defaults to os.TempDir.
	TempDir string
}

// Validator checks paths against a RuleSet. It caches nothing between calls
// and is safe for concurrent use.
type Validator struct {
	restricted     []string
	sensitive      []string
	executableExts []string
	blockedExts    []string
	systemBinDirs  []string
	reserved       map[string]bool
	metachars      string
	foldCase       bool
	driveLetters   bool

	// allowed and projectRoots include both literal and canonical forms.
	allowed      []string
	projectRoots []string
	base         string
}

// New creates a Validator for the given rule set.
func New(rs *rules.RuleSet, opts Options) *Validator {
	opts = withDefaults(opts)

	reserved := make(map[string]bool)
	for _, name := range rs.ReservedNames() {
		reserved[strings.ToUpper(name)] = true
	}

	v := &Validator{
		restricted:     rs.RestrictedRoots(),
		sensitive:      rs.SensitiveSubpaths(),
		executableExts: lowerAll(rs.ExecutableExtensions()),
		blockedExts:    lowerAll(rs.BlockedExtensions()),
		systemBinDirs:  rs.SystemBinDirs(),
		reserved:       reserved,
		metachars:      rs.PathMetacharacters(),
		foldCase:       rs.CaseInsensitivePaths(),
		driveLetters:   rs.DriveLetters(),
		base:           opts.ProjectRoot,
		projectRoots:   withCanonical(opts.ProjectRoot),
	}

	v.allowed = append(v.allowed, rs.AllowedRoots()...)
	for _, dir := range []string{opts.HomeDir, opts.TempDir, opts.ProjectRoot} {
		v.allowed = append(v.allowed, withCanonical(dir)...)
	}
	return v
}

func withDefaults(opts Options) Options {
	if opts.ProjectRoot == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.ProjectRoot = wd
		}
	}
	if opts.ProjectRoot != "" {
		if abs, err := filepath.Abs(opts.ProjectRoot); err == nil {
			opts.ProjectRoot = abs
		}
	}
	if opts.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.HomeDir = home
		}
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return opts
}

// withCanonical returns dir and, when it differs, its symlink-free form.
func withCanonical(dir string) []string {
	if dir == "" {
		return nil
	}
	dir = filepath.Clean(dir)
	out := []string{dir}
	if real, err := filepath.EvalSymlinks(dir); err == nil && real != dir {
		out = append(out, real)
	}
	return out
}

// ProjectRoot returns the directory relative paths are resolved against.
func (v *Validator) ProjectRoot() string {
	return v.base
}

// IsSafe returns the verdict for path.
func (v *Validator) IsSafe(path string) rules.Verdict {
	return v.check(path, 0)
}

func (v *Validator) check(path string, depth int) rules.Verdict {
	if path == "" {
		return rules.Deny("empty path")
	}
	if strings.ContainsRune(path, 0) {
		return rules.Deny("path contains NUL byte")
	}
	if len(path) > MaxPathLength {
		return rules.Deny("path too long (%d bytes, max %d)", len(path), MaxPathLength)
	}

	resolved := v.resolve(path)

	if variant, found := v.traversal(path); found {
		return rules.Deny("path traversal detected: %s", variant)
	}

	if reason, found := v.dangerousName(path, resolved); found {
		return rules.Deny("%s", reason)
	}

	for _, root := range v.restricted {
		if v.matchesRestricted(resolved, root) {
			return rules.Deny("restricted system area: %s", root)
		}
	}

	slashed := strings.ToLower(filepath.ToSlash(resolved)) + "/"
	for _, frag := range v.sensitive {
		if strings.Contains(slashed, strings.ToLower(filepath.ToSlash(frag))) {
			return rules.Deny("sensitive location: %s", frag)
		}
	}

	if pathDepth(resolved) <= shallowDepth && !v.underAny(resolved, v.allowed) {
		return rules.Deny("path too close to filesystem root: %s", resolved)
	}

	if v.isExecutable(resolved) {
		if !v.underAny(resolved, v.projectRoots) || v.underAny(resolved, v.systemBinDirs) {
			return rules.Deny("executable file outside project root: %s", resolved)
		}
	}

	return v.checkLinks(resolved, depth)
}

// resolve makes path absolute against the project root and cleans it.
func (v *Validator) resolve(path string) string {
	if filepath.IsAbs(path) || v.base == "" {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return filepath.Clean(path)
	}
	return filepath.Join(v.base, path)
}

// checkLinks is stage 9. A link is judged by its target; a path whose
// ancestors contain links is judged by its canonical form as well. Metadata
// errors other than non-existence deny.
func (v *Validator) checkLinks(resolved string, depth int) rules.Verdict {
	info, err := os.Lstat(resolved)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		if depth >= MaxSymlinkDepth {
			return rules.Deny("too many levels of symbolic links")
		}
		target, err := os.Readlink(resolved)
		if err != nil {
			return rules.Deny("cannot verify symlink status: %v", err)
		}
		if filepath.IsAbs(target) {
			target = filepath.Clean(target)
		} else {
			dir, err := pathutil.Canonicalize(filepath.Dir(resolved))
			if err != nil {
				return rules.Deny("cannot verify symlink status: %v", err)
			}
			target = filepath.Join(dir, target)
		}
		if tv := v.check(target, depth+1); !tv.Valid {
			return rules.Deny("symlink target unsafe: %s", tv.Reason)
		}
		return rules.Allow()
	case err == nil, errors.Is(err, fs.ErrNotExist):
	default:
		return rules.Deny("cannot verify symlink status: %v", err)
	}

	canonical, err := pathutil.Canonicalize(resolved)
	if err != nil {
		return rules.Deny("cannot verify symlink status: %v", err)
	}
	if canonical != resolved {
		if depth >= MaxSymlinkDepth {
			return rules.Deny("too many levels of symbolic links")
		}
		if cv := v.check(canonical, depth+1); !cv.Valid {
			return rules.Deny("symlink target unsafe: %s", cv.Reason)
		}
	}
	return rules.Allow()
}

// matchesRestricted matches case-insensitively on every platform; a false
// positive only denies.
func (v *Validator) matchesRestricted(resolved, root string) bool {
	p := strings.ToLower(filepath.ToSlash(resolved))
	r := strings.ToLower(filepath.ToSlash(root))
	if strings.Contains(r, "*") {
		return globPrefix(p, r)
	}
	return under(p, r)
}

// globPrefix reports whether the leading components of p match pattern.
func globPrefix(p, pattern string) bool {
	pathParts := splitSlash(p)
	patParts := splitSlash(pattern)
	if len(pathParts) < len(patParts) {
		return false
	}
	for i, pp := range patParts {
		ok, err := filepath.Match(pp, pathParts[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// underAny reports whether p is one of roots or beneath one of them.
func (v *Validator) underAny(p string, roots []string) bool {
	p = filepath.ToSlash(p)
	if v.foldCase {
		p = strings.ToLower(p)
	}
	for _, root := range roots {
		r := filepath.ToSlash(root)
		if v.foldCase {
			r = strings.ToLower(r)
		}
		if under(p, r) {
			return true
		}
	}
	return false
}

// under compares slash-separated paths.
func under(p, root string) bool {
	root = strings.TrimSuffix(root, "/")
	if root == "" {
		return strings.HasPrefix(p, "/")
	}
	return p == root || strings.HasPrefix(p, root+"/")
}

func (v *Validator) isExecutable(resolved string) bool {
	ext := strings.ToLower(filepath.Ext(resolved))
	if ext == "" {
		return false
	}
	for _, e := range v.executableExts {
		if ext == e {
			return true
		}
	}
	return false
}

// pathDepth counts components below the volume root.
func pathDepth(p string) int {
	vol := filepath.VolumeName(p)
	return len(splitSlash(filepath.ToSlash(p[len(vol):])))
}

func splitSlash(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
