package service

import (
	"context"
	"errors"
	"sync"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/executor"
	"github.com/xdg/hostgate/internal/rules"
)

// BlockedError is returned when a command fails validation. Nothing is
// spawned.
type BlockedError struct {
	Command string
	Reason  string
}

func (e *BlockedError) Error() string {
	return "Command blocked: " + e.Reason
}

// CommandChecker validates a command. *cmdguard.Validator implements it.
type CommandChecker interface {
	Validate(command string) rules.Verdict
}

// TerminalService runs validated commands.
type TerminalService struct {
	commands CommandChecker
	exec     executor.Executor
	opts     options

	mu      sync.Mutex
	session Session
}

// NewTerminalService creates a TerminalService. It is not connected until
// Connect or the first ExecuteCommand.
func NewTerminalService(commands CommandChecker, exec executor.Executor, opts ...Option) *TerminalService {
	return &TerminalService{
		commands: commands,
		exec:     exec,
		opts:     buildOptions(opts),
	}
}

// Connect opens the session. It is idempotent and always succeeds; commands
// run as independent processes with nothing to attach to.
func (s *TerminalService) Connect(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Connected {
		s.session = Session{Connected: true, Since: s.opts.now()}
		clog.Debug("terminal service connected")
	}
	return true, nil
}

// Disconnect closes the session. It is a no-op when not connected.
func (s *TerminalService) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Connected {
		clog.Debug("terminal service disconnected")
	}
	s.session = Session{}
	return nil
}

// Session returns a copy of the current session state.
func (s *TerminalService) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ExecuteCommand validates command and runs it exactly as given. A failed
// validation returns *BlockedError. A command that ran, including one that
// exited non-zero or timed out, returns a Result and a nil error.
func (s *TerminalService) ExecuteCommand(ctx context.Context, command string) (*executor.Result, error) {
	if _, err := s.Connect(ctx); err != nil {
		return nil, err
	}

	log := s.opts.audit
	auditErr(log.LogRequest(command))

	verdict := s.commands.Validate(command)
	if !verdict.Valid {
		clog.Info("command blocked: %s", verdict.Reason)
		auditErr(log.LogDeny(command, verdict.Reason))
		return nil, &BlockedError{Command: command, Reason: verdict.Reason}
	}
	auditErr(log.LogAllow(command))

	result, err := s.exec.Execute(ctx, command)
	if err != nil {
		var spawnErr *executor.SpawnError
		if errors.As(err, &spawnErr) {
			auditErr(log.LogSpawnError(command, spawnErr.Err))
		}
		return nil, err
	}

	if result.TimedOut {
		auditErr(log.LogTimeout(command, result.Duration))
	} else {
		auditErr(log.LogComplete(command, result.ExitCode, result.Duration))
	}
	return result, nil
}
