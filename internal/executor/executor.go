// Package executor runs validated commands on the host without a shell.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a command when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Executor executes commands on the host system. Callers validate the
// command first; an Executor never does.
type Executor interface {
	Execute(ctx context.Context, command string) (*Result, error)
}

// Result describes a command that was started. A non-zero or missing exit
// code is a normal outcome, not an error.
type Result struct {
	Command  string        `json:"command"`
	ExitCode *int          `json:"exit_code"` // nil when killed or timed out
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	Success  bool          `json:"success"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Duration time.Duration `json:"duration"`
}

// ErrUnsupportedSyntax is wrapped by SpawnError when a command uses shell
// syntax that cannot be run as a single program with literal arguments.
var ErrUnsupportedSyntax = errors.New("unsupported shell syntax")

// SpawnError is returned when no process could be started.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot run %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
