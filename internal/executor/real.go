package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// waitDelay bounds how long Execute waits for output pipes after the child
// exits or is killed. Grandchildren that inherited the pipes would otherwise
// hold Run open.
const waitDelay = 2 * time.Second

// RealExecutor runs commands with os/exec. Each Execute call is independent.
type RealExecutor struct {
	timeout   time.Duration
	workdir   string
	lookupEnv func(string) (string, bool)
}

// Option configures a RealExecutor.
type Option func(*RealExecutor)

// WithTimeout sets the per-command timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *RealExecutor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithWorkdir sets the working directory for every command.
func WithWorkdir(dir string) Option {
	return func(e *RealExecutor) {
		e.workdir = dir
	}
}

// NewRealExecutor creates a new RealExecutor.
func NewRealExecutor(opts ...Option) *RealExecutor {
	e := &RealExecutor{
		timeout:   DefaultTimeout,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the per-command timeout.
func (e *RealExecutor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs command and waits for it to finish or time out.
//
// A timeout is reported in the Result with TimedOut set and no exit code;
// the whole process group is killed. Failure to start the process returns a
// *SpawnError and no Result.
func (e *RealExecutor) Execute(ctx context.Context, command string) (*Result, error) {
	argv, err := tokenize(command, literalBackslash)
	if err != nil {
		return nil, &SpawnError{Command: command, Err: err}
	}

	// A caller deadline earlier than ours is the limit that actually applies.
	limit := e.timeout
	if d, ok := ctx.Deadline(); ok && time.Until(d) < limit {
		limit = time.Until(d).Round(time.Millisecond)
	}
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...) //nolint:gosec // G204: command was validated by the caller
	cmd.Dir = e.workdir
	cmd.Env = e.environ()
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	res := &Result{
		Command:  command,
		Output:   stdout.String(),
		Error:    stderr.String(),
		Duration: time.Since(start),
	}

	// Parent cancellation is the caller's decision, not a command outcome.
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("command canceled: %w", ctx.Err())
	}
	if runCtx.Err() != nil && cmd.Process != nil {
		res.TimedOut = true
		res.Error = fmt.Sprintf("command timed out after %s", limit)
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.Is(err, exec.ErrWaitDelay):
		res.setExitCode(cmd.ProcessState.ExitCode())
	case errors.As(err, &exitErr):
		res.setExitCode(exitErr.ExitCode())
	default:
		return nil, &SpawnError{Command: command, Err: err}
	}
	return res, nil
}

// setExitCode records code; -1 means the process was killed by a signal.
func (r *Result) setExitCode(code int) {
	if code < 0 {
		return
	}
	r.ExitCode = &code
	r.Success = code == 0
}

// environ builds the child's environment from the allowed keys only.
func (e *RealExecutor) environ() []string {
	env := make([]string, 0, len(envKeys))
	for _, k := range envKeys {
		if v, ok := e.lookupEnv(k); ok {
			env = append(env, k+"="+v)
		}
	}
	return env
}
