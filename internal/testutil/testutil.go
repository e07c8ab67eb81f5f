// Package testutil provides shared test helpers for hostgate tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RequirePOSIX skips the test on Windows hosts.
func RequirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX host")
	}
}

// RequireWindows skips the test on non-Windows hosts.
func RequireWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "windows" {
		t.Skip("test requires a Windows host")
	}
}

// RequireSymlinks skips the test if the temp filesystem cannot hold symlinks.
func RequireSymlinks(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Symlink(dir, filepath.Join(dir, "probe")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
}

// WriteFile creates name under dir with content and returns its path.
// Parent directories are created as needed.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return p
}

// RealTempDir returns t.TempDir() with symlinks resolved, so paths compare
// equal to what the kernel reports (macOS /var is a link to /private/var).
func RealTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	return dir
}

// HelperCommand returns an argv that re-executes the current test binary
// with env set to mode. The package's TestMain must check env and act as
// the helper process instead of running tests.
func HelperCommand(t *testing.T, env, mode string) []string {
	t.Helper()
	t.Setenv(env, mode)
	return []string{os.Args[0]}
}
