// Package term provides user-facing terminal output for the hostgate CLI.
// This is distinct from operational logging (see internal/clog).
//
// Normal output (Print*, Block, JSON) goes to stdout and is suppressed with
// --silent. Warn and Error go to stderr and are never suppressed. Command
// output that the user asked for, such as the result of hostgate exec, goes
// through Block so it is not mixed with diagnostics.
package term

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	xterm "golang.org/x/term"
)

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	silent bool
)

// SetSilent enables or disables silent mode.
func SetSilent(s bool) {
	mu.Lock()
	defer mu.Unlock()
	silent = s
}

// IsSilent returns whether silent mode is enabled.
func IsSilent() bool {
	mu.Lock()
	defer mu.Unlock()
	return silent
}

// SetOutput sets the writer for stdout output. Nil restores os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdout = orDefault(w, os.Stdout)
}

// SetErrOutput sets the writer for stderr output. Nil restores os.Stderr.
func SetErrOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stderr = orDefault(w, os.Stderr)
}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// toStdout runs fn with the stdout writer unless silent.
func toStdout(fn func(w io.Writer)) {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return
	}
	fn(stdout)
}

// Print formats and writes to stdout.
func Print(a ...any) {
	toStdout(func(w io.Writer) { _, _ = fmt.Fprint(w, a...) })
}

// Printf formats according to a format specifier and writes to stdout.
func Printf(format string, a ...any) {
	toStdout(func(w io.Writer) { _, _ = fmt.Fprintf(w, format, a...) })
}

// Println formats and writes to stdout with a trailing newline.
func Println(a ...any) {
	toStdout(func(w io.Writer) { _, _ = fmt.Fprintln(w, a...) })
}

// Block writes text to stdout, adding a final newline if it lacks one.
// Empty text writes nothing.
func Block(text string) {
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	toStdout(func(w io.Writer) { _, _ = io.WriteString(w, text) })
}

// JSON writes v to stdout as indented JSON.
func JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	Block(string(data))
	return nil
}

// Warn writes a warning message to stderr with "Warning: " prefix.
func Warn(format string, a ...any) {
	toStderr("Warning: ", format, a...)
}

// Error writes an error message to stderr with "Error: " prefix.
func Error(format string, a ...any) {
	toStderr("Error: ", format, a...)
}

func toStderr(prefix, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "%s%s\n", prefix, fmt.Sprintf(format, a...))
}

// Stdout returns the current stdout writer, or io.Discard when silent.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return io.Discard
	}
	return stdout
}

// Stderr returns the current stderr writer.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stderr
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && xterm.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

// Reset restores the default writers and turns silent mode off.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	stdout = os.Stdout
	stderr = os.Stderr
	silent = false
}

// Discard configures the package to discard all output.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	stdout = io.Discard
	stderr = io.Discard
}
