package cmd

import (
	"errors"
	"fmt"

	"github.com/xdg/hostgate/internal/fsgateway"
	"github.com/xdg/hostgate/internal/service"
)

// Exit statuses used by hostgate. exec also passes through the command's
// own status.
const (
	exitFailure = 1
	exitBlocked = 2
	exitTimeout = 124
)

// ExitCodeError carries a process exit status out of a command. Err, when
// set, is reported to the user before exiting.
type ExitCodeError struct {
	Code int
	Err  error
}

// NewExitCodeError returns an ExitCodeError with no message.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// withExitCode attaches the exit status for err: 2 when the gate refused
// the request, 1 otherwise.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	var blocked *service.BlockedError
	var denied *fsgateway.AccessDeniedError
	if errors.As(err, &blocked) || errors.As(err, &denied) {
		return &ExitCodeError{Code: exitBlocked, Err: err}
	}
	return &ExitCodeError{Code: exitFailure, Err: err}
}
