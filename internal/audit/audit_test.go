package audit

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

// Fixed timestamp for deterministic testing
var testTime = time.Date(2024, 1, 15, 14, 32, 5, 0, time.UTC)

func intPtr(n int) *int { return &n }

func TestEventFormat(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "request",
			event: Event{Category: CategoryCommand, Type: EventRequest, Cmd: "ls -la"},
			want:  `2024-01-15T14:32:05Z COMMAND REQUEST cmd="ls -la"`,
		},
		{
			name:  "allow",
			event: Event{Category: CategoryCommand, Type: EventAllow, Cmd: "git status"},
			want:  `2024-01-15T14:32:05Z COMMAND ALLOW cmd="git status"`,
		},
		{
			name:  "deny",
			event: Event{Category: CategoryCommand, Type: EventDeny, Cmd: "rm -rf /", Reason: "dangerous pattern: rm -rf"},
			want:  `2024-01-15T14:32:05Z COMMAND DENY cmd="rm -rf /" reason="dangerous pattern: rm -rf"`,
		},
		{
			name:  "complete",
			event: Event{Category: CategoryCommand, Type: EventComplete, Cmd: "make build", ExitCode: intPtr(0), Duration: 2300 * time.Millisecond},
			want:  `2024-01-15T14:32:05Z COMMAND COMPLETE cmd="make build" exit=0 duration=2.3s`,
		},
		{
			name:  "complete non-zero",
			event: Event{Category: CategoryCommand, Type: EventComplete, Cmd: "make test", ExitCode: intPtr(2), Duration: 90 * time.Second},
			want:  `2024-01-15T14:32:05Z COMMAND COMPLETE cmd="make test" exit=2 duration=1m30s`,
		},
		{
			name:  "complete signal",
			event: Event{Category: CategoryCommand, Type: EventComplete, Cmd: "sleep 9", Duration: 150 * time.Millisecond},
			want:  `2024-01-15T14:32:05Z COMMAND COMPLETE cmd="sleep 9" exit=signal duration=150.0ms`,
		},
		{
			name:  "timeout",
			event: Event{Category: CategoryCommand, Type: EventTimeout, Cmd: "sleep 60", Duration: 30 * time.Second},
			want:  `2024-01-15T14:32:05Z COMMAND TIMEOUT cmd="sleep 60" duration=30.0s`,
		},
		{
			name:  "spawn error",
			event: Event{Category: CategoryCommand, Type: EventSpawnError, Cmd: "nosuch", Err: "not found"},
			want:  `2024-01-15T14:32:05Z COMMAND SPAWN_ERROR cmd="nosuch" error="not found"`,
		},
		{
			name:  "special characters",
			event: Event{Category: CategoryCommand, Type: EventRequest, Cmd: `echo "hello world"`},
			want:  `2024-01-15T14:32:05Z COMMAND REQUEST cmd="echo \"hello world\""`,
		},
		{
			name:  "file read",
			event: Event{Category: CategoryFile, Type: EventRead, Path: "/home/u/proj/main.go"},
			want:  `2024-01-15T14:32:05Z FILE READ path="/home/u/proj/main.go"`,
		},
		{
			name:  "file write",
			event: Event{Category: CategoryFile, Type: EventWrite, Path: "/home/u/proj/out.txt", Bytes: 12},
			want:  `2024-01-15T14:32:05Z FILE WRITE path="/home/u/proj/out.txt" bytes=12`,
		},
		{
			name:  "file list",
			event: Event{Category: CategoryFile, Type: EventList, Path: "."},
			want:  `2024-01-15T14:32:05Z FILE LIST path="."`,
		},
		{
			name:  "file deny",
			event: Event{Category: CategoryFile, Type: EventDeny, Op: "read", Path: "/etc/passwd", Reason: "restricted system area: /etc"},
			want:  `2024-01-15T14:32:05Z FILE DENY path="/etc/passwd" op="read" reason="restricted system area: /etc"`,
		},
		{
			name:  "file error",
			event: Event{Category: CategoryFile, Type: EventError, Op: "write", Path: "/srv/x", Err: "provider is closed"},
			want:  `2024-01-15T14:32:05Z FILE ERROR path="/srv/x" op="write" error="provider is closed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.event
			e.Timestamp = testTime
			if got := e.Format(); got != tt.want {
				t.Errorf("Format() =\n  got:  %q\n  want: %q", got, tt.want)
			}
		})
	}
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	e := &Event{Timestamp: testTime, Category: CategoryCommand, Type: EventRequest, Cmd: "make build"}
	if err := logger.Log(e); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	want := `2024-01-15T14:32:05Z COMMAND REQUEST cmd="make build"` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("Log() wrote:\n  got:  %q\n  want: %q", got, want)
	}
}

func TestLogger_FillsTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.now = func() time.Time { return testTime }

	if err := logger.LogRead("a.txt"); err != nil {
		t.Fatalf("LogRead() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "2024-01-15T14:32:05Z FILE READ") {
		t.Errorf("Log() wrote %q", buf.String())
	}
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *Logger

	// Should not panic
	if err := logger.LogRequest("cmd"); err != nil {
		t.Errorf("nil logger should return nil error, got %v", err)
	}
}

func TestLogger_NilWriter(t *testing.T) {
	logger := &Logger{w: nil}

	if err := logger.LogRequest("cmd"); err != nil {
		t.Errorf("nil writer should return nil error, got %v", err)
	}
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	calls := []func() error{
		func() error { return logger.LogRequest("ls") },
		func() error { return logger.LogAllow("ls") },
		func() error { return logger.LogDeny("rm -rf /", "blocked") },
		func() error { return logger.LogComplete("ls", intPtr(0), 5*time.Second) },
		func() error { return logger.LogTimeout("sleep 60", 30*time.Second) },
		func() error { return logger.LogSpawnError("nosuch", errors.New("not found")) },
		func() error { return logger.LogRead("a.txt") },
		func() error { return logger.LogWrite("b.txt", 3) },
		func() error { return logger.LogList(".") },
		func() error { return logger.LogFileDeny("read", "/etc/passwd", "restricted") },
		func() error { return logger.LogFileError("list", "src", errors.New("boom")) },
	}
	for i, call := range calls {
		if err := call(); err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []string{
		"COMMAND REQUEST", "COMMAND ALLOW", "COMMAND DENY", "COMMAND COMPLETE",
		"COMMAND TIMEOUT", "COMMAND SPAWN_ERROR", "FILE READ", "FILE WRITE",
		"FILE LIST", "FILE DENY", "FILE ERROR",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d log lines, got %d:\n%s", len(want), len(lines), buf.String())
	}

	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z (COMMAND|FILE) [A-Z_]+ `)
	for i, line := range lines {
		if !pattern.MatchString(line) {
			t.Errorf("line %d has unexpected shape: %s", i, line)
		}
		if !strings.Contains(line, want[i]) {
			t.Errorf("line %d should contain %q: %s", i, want[i], line)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.log")

	logger, closer, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	if err := logger.LogList("."); err != nil {
		t.Fatalf("LogList() error = %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening appends.
	logger, closer, err = OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() second error = %v", err)
	}
	_ = logger.LogRead("x")
	_ = closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("audit log has %d lines, want 2:\n%s", n, data)
	}
}
