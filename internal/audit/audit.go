// Package audit provides structured logging for gateway decisions.
// Log entries follow a key=value format suitable for parsing and analysis.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Category groups events by the kind of operation they describe.
type Category string

// Event categories.
const (
	CategoryCommand Category = "COMMAND"
	CategoryFile    Category = "FILE"
)

// EventType represents the type of gateway event.
type EventType string

// Event types for command execution.
const (
	EventRequest    EventType = "REQUEST"
	EventAllow      EventType = "ALLOW"
	EventDeny       EventType = "DENY"
	EventComplete   EventType = "COMPLETE"
	EventTimeout    EventType = "TIMEOUT"
	EventSpawnError EventType = "SPAWN_ERROR"
)

// Event types for filesystem access. DENY is shared with commands.
const (
	EventRead  EventType = "READ"
	EventWrite EventType = "WRITE"
	EventList  EventType = "LIST"
	EventError EventType = "ERROR"
)

// Event represents a single audit log entry.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time

	Category Category
	Type     EventType

	// Cmd is the command string (command events).
	Cmd string

	// Path is the requested path (file events).
	Path string

	// Op is the file operation (read, write, list) for DENY and ERROR file events.
	Op string

	// Reason is the denial reason (DENY events).
	Reason string

	// Err is the failure message (SPAWN_ERROR and ERROR events).
	Err string

	// ExitCode is the command exit code (COMPLETE events). Nil when the
	// process was terminated by a signal.
	ExitCode *int

	// Duration is the execution time (COMPLETE and TIMEOUT events).
	Duration time.Duration

	// Bytes is the content size (WRITE events).
	Bytes int
}

// Format returns the log entry as a formatted string.
// Format: 2024-01-15T14:32:05Z COMMAND DENY cmd="rm -rf /" reason="..."
// Format: 2024-01-15T14:32:05Z FILE READ path="/home/u/proj/main.go"
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" ")
	b.WriteString(string(e.Category))
	b.WriteString(" ")
	b.WriteString(string(e.Type))

	if e.Category == CategoryFile {
		b.WriteString(" path=")
		b.WriteString(quoteValue(e.Path))
		writeOptionalField(&b, "op", e.Op)
	} else {
		b.WriteString(" cmd=")
		b.WriteString(quoteValue(e.Cmd))
	}

	e.formatTypeSpecificFields(&b)

	return b.String()
}

// formatTypeSpecificFields appends type-specific key=value pairs to the builder.
func (e *Event) formatTypeSpecificFields(b *strings.Builder) {
	switch e.Type {
	case EventDeny:
		writeOptionalField(b, "reason", e.Reason)
	case EventComplete:
		b.WriteString(" exit=")
		if e.ExitCode != nil {
			b.WriteString(strconv.Itoa(*e.ExitCode))
		} else {
			b.WriteString("signal")
		}
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventTimeout:
		b.WriteString(" duration=")
		b.WriteString(formatDuration(e.Duration))
	case EventSpawnError, EventError:
		writeOptionalField(b, "error", e.Err)
	case EventWrite:
		b.WriteString(" bytes=")
		b.WriteString(strconv.Itoa(e.Bytes))
	}
}

// writeOptionalField appends " key=quoted_value" to the builder if value is non-empty.
func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

// quoteValue returns a quoted string value.
// Values are always quoted for consistency and to handle spaces/special chars.
func quoteValue(s string) string {
	return fmt.Sprintf("%q", s)
}

// formatDuration formats a duration as a human-readable string (e.g., "2.3s", "1m30s").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer. A nil *Logger discards events,
// so callers need not check whether auditing is configured.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewLogger creates a new audit logger that writes to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// OpenFile opens (or creates) path for appending and returns a Logger that
// writes to it along with the file to close when done.
func OpenFile(path string) (*Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // G304: path is from trusted config
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return NewLogger(f), f, nil
}

// Log writes an event to the audit log.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	line := e.Format() + "\n"
	_, err := l.w.Write([]byte(line))
	if err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogRequest logs a COMMAND REQUEST event.
func (l *Logger) LogRequest(cmd string) error {
	return l.Log(&Event{Category: CategoryCommand, Type: EventRequest, Cmd: cmd})
}

// LogAllow logs a COMMAND ALLOW event.
func (l *Logger) LogAllow(cmd string) error {
	return l.Log(&Event{Category: CategoryCommand, Type: EventAllow, Cmd: cmd})
}

// LogDeny logs a COMMAND DENY event.
func (l *Logger) LogDeny(cmd, reason string) error {
	return l.Log(&Event{Category: CategoryCommand, Type: EventDeny, Cmd: cmd, Reason: reason})
}

// LogComplete logs a COMMAND COMPLETE event.
func (l *Logger) LogComplete(cmd string, exitCode *int, duration time.Duration) error {
	return l.Log(&Event{
		Category: CategoryCommand,
		Type:     EventComplete,
		Cmd:      cmd,
		ExitCode: exitCode,
		Duration: duration,
	})
}

// LogTimeout logs a COMMAND TIMEOUT event.
func (l *Logger) LogTimeout(cmd string, duration time.Duration) error {
	return l.Log(&Event{Category: CategoryCommand, Type: EventTimeout, Cmd: cmd, Duration: duration})
}

// LogSpawnError logs a COMMAND SPAWN_ERROR event.
func (l *Logger) LogSpawnError(cmd string, err error) error {
	return l.Log(&Event{Category: CategoryCommand, Type: EventSpawnError, Cmd: cmd, Err: errString(err)})
}

// LogRead logs a FILE READ event.
func (l *Logger) LogRead(path string) error {
	return l.Log(&Event{Category: CategoryFile, Type: EventRead, Path: path})
}

// LogWrite logs a FILE WRITE event.
func (l *Logger) LogWrite(path string, n int) error {
	return l.Log(&Event{Category: CategoryFile, Type: EventWrite, Path: path, Bytes: n})
}

// LogList logs a FILE LIST event.
func (l *Logger) LogList(path string) error {
	return l.Log(&Event{Category: CategoryFile, Type: EventList, Path: path})
}

// LogFileDeny logs a FILE DENY event.
func (l *Logger) LogFileDeny(op, path, reason string) error {
	return l.Log(&Event{Category: CategoryFile, Type: EventDeny, Op: op, Path: path, Reason: reason})
}

// LogFileError logs a FILE ERROR event.
func (l *Logger) LogFileError(op, path string, err error) error {
	return l.Log(&Event{Category: CategoryFile, Type: EventError, Op: op, Path: path, Err: errString(err)})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
