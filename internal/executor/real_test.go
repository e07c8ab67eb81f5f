package executor

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xdg/hostgate/internal/testutil"
)

// TestRealExecutorInterface verifies RealExecutor implements Executor.
func TestRealExecutorInterface(_ *testing.T) {
	var _ Executor = &RealExecutor{}
	var _ Executor = NewRealExecutor()
}

// TestRealExecutorDefaults verifies option handling.
func TestRealExecutorDefaults(t *testing.T) {
	if got := NewRealExecutor().Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout: got %v, want %v", got, DefaultTimeout)
	}
	if got := NewRealExecutor(WithTimeout(0)).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout with zero option: got %v, want %v", got, DefaultTimeout)
	}
	if got := NewRealExecutor(WithTimeout(time.Second)).Timeout(); got != time.Second {
		t.Errorf("Timeout: got %v, want 1s", got)
	}
}

// TestRealExecutorEchoHello verifies basic command execution.
func TestRealExecutorEchoHello(t *testing.T) {
	testutil.RequirePOSIX(t)

	res, err := NewRealExecutor().Execute(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.ExitCode == nil || *res.ExitCode != 0 {
		t.Fatalf("ExitCode: got %v, want 0", res.ExitCode)
	}
	if !res.Success {
		t.Error("Success should be true")
	}
	if res.Output != "hello\n" {
		t.Errorf("Output: got %q, want %q", res.Output, "hello\n")
	}
	if res.Command != "echo hello" {
		t.Errorf("Command: got %q", res.Command)
	}
	if res.Duration <= 0 {
		t.Errorf("Duration: got %v, want > 0", res.Duration)
	}
}

// TestRealExecutorListing verifies ls -la exits 0 in the working directory.
func TestRealExecutorListing(t *testing.T) {
	testutil.RequirePOSIX(t)
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "marker.txt", "x")

	res, err := NewRealExecutor(WithWorkdir(dir)).Execute(context.Background(), "ls -la")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("ls -la failed: exit %v, stderr %q", res.ExitCode, res.Error)
	}
	if !strings.Contains(res.Output, "marker.txt") {
		t.Errorf("Output should list marker.txt, got: %q", res.Output)
	}
}

// TestRealExecutorWorkdir verifies working directory is set correctly.
func TestRealExecutorWorkdir(t *testing.T) {
	testutil.RequirePOSIX(t)
	tmpDir := t.TempDir()

	res, err := NewRealExecutor(WithWorkdir(tmpDir)).Execute(context.Background(), "pwd")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// On macOS, /tmp is a symlink to /private/tmp, so resolve both
	expectedDir, _ := filepath.EvalSymlinks(tmpDir)
	actualDir, _ := filepath.EvalSymlinks(strings.TrimSpace(res.Output))
	if actualDir != expectedDir {
		t.Errorf("Workdir: got %q, want %q", actualDir, expectedDir)
	}
}

// TestRealExecutorNonZeroExit verifies a failing command is a result, not an error.
func TestRealExecutorNonZeroExit(t *testing.T) {
	testutil.RequirePOSIX(t)

	res, err := NewRealExecutor().Execute(context.Background(), "sh -c 'echo oops >&2; exit 42'")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.ExitCode == nil || *res.ExitCode != 42 {
		t.Errorf("ExitCode: got %v, want 42", res.ExitCode)
	}
	if res.Success {
		t.Error("Success should be false")
	}
	if !strings.Contains(res.Error, "oops") {
		t.Errorf("Error should contain stderr, got: %q", res.Error)
	}
}

// TestRealExecutorNonexistentCommand verifies error handling for missing executables.
func TestRealExecutorNonexistentCommand(t *testing.T) {
	res, err := NewRealExecutor().Execute(context.Background(), "this-command-definitely-does-not-exist-anywhere")
	if res != nil {
		t.Errorf("Result should be nil on spawn failure, got %+v", res)
	}
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("error = %v, want *SpawnError", err)
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("error should wrap exec.ErrNotFound, got %v", err)
	}
}

// TestRealExecutorUnsupportedSyntax verifies no process starts for shell syntax.
func TestRealExecutorUnsupportedSyntax(t *testing.T) {
	_, err := NewRealExecutor().Execute(context.Background(), "echo a > /tmp/should-not-exist")
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) || !errors.Is(err, ErrUnsupportedSyntax) {
		t.Errorf("error = %v, want SpawnError wrapping ErrUnsupportedSyntax", err)
	}
}

// TestRealExecutorTimeout verifies timeout handling.
func TestRealExecutorTimeout(t *testing.T) {
	testutil.RequirePOSIX(t)

	res, err := NewRealExecutor(WithTimeout(100*time.Millisecond)).Execute(context.Background(), "sleep 10")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut should be true")
	}
	if res.ExitCode != nil {
		t.Errorf("ExitCode: got %d, want nil", *res.ExitCode)
	}
	if res.Success {
		t.Error("Success should be false")
	}
	if res.Error != "command timed out after 100ms" {
		t.Errorf("Error: got %q", res.Error)
	}
}

// TestRealExecutorCallerDeadline verifies an earlier caller deadline is
// reported as the timeout that fired.
func TestRealExecutorCallerDeadline(t *testing.T) {
	testutil.RequirePOSIX(t)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	res, err := NewRealExecutor(WithTimeout(time.Minute)).Execute(ctx, "sleep 10")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.TimedOut {
		t.Fatal("TimedOut should be true")
	}
	after, ok := strings.CutPrefix(res.Error, "command timed out after ")
	if !ok {
		t.Fatalf("Error: got %q", res.Error)
	}
	limit, err := time.ParseDuration(after)
	if err != nil {
		t.Fatalf("Error %q does not end in a duration: %v", res.Error, err)
	}
	if limit <= 0 || limit > 150*time.Millisecond {
		t.Errorf("reported limit %v, want at most the 150ms caller deadline", limit)
	}
	if res.Duration > 5*time.Second {
		t.Errorf("Duration = %v; command outlived the caller deadline", res.Duration)
	}
}

// TestRealExecutorTimeoutKillsGroup verifies background children do not keep
// the call alive past the timeout.
func TestRealExecutorTimeoutKillsGroup(t *testing.T) {
	testutil.RequirePOSIX(t)

	start := time.Now()
	res, err := NewRealExecutor(WithTimeout(200*time.Millisecond)).Execute(context.Background(), "sh -c 'sleep 30 & sleep 30'")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut should be true")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Execute took %v; process group was not killed", elapsed)
	}
}

// TestRealExecutorContextCancelled verifies caller cancellation is an error.
func TestRealExecutorContextCancelled(t *testing.T) {
	testutil.RequirePOSIX(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewRealExecutor().Execute(ctx, "sleep 10")
	if err == nil {
		t.Fatalf("expected error, got result %+v", res)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// TestRealExecutorMinimalEnv verifies only the allowed variables reach the child.
func TestRealExecutorMinimalEnv(t *testing.T) {
	testutil.RequirePOSIX(t)
	t.Setenv("HOSTGATE_LEAK_CHECK", "secret_value_12345")
	t.Setenv("TERM", "xterm")

	res, err := NewRealExecutor().Execute(context.Background(), "env")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.Contains(res.Output, "secret_value_12345") {
		t.Error("child environment leaked HOSTGATE_LEAK_CHECK")
	}
	if !strings.Contains(res.Output, "TERM=xterm") {
		t.Errorf("child environment missing TERM, got: %q", res.Output)
	}
}

// TestRealExecutorEnviron verifies environ filtering without spawning.
func TestRealExecutorEnviron(t *testing.T) {
	e := NewRealExecutor()
	e.lookupEnv = func(k string) (string, bool) {
		if k == envKeys[0] {
			return "value", true
		}
		return "", false
	}

	env := e.environ()
	if len(env) != 1 || env[0] != envKeys[0]+"=value" {
		t.Errorf("environ() = %q, want only %s", env, envKeys[0])
	}
}
