package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/xdg/hostgate/internal/fsgateway"
	"github.com/xdg/hostgate/internal/service"
)

func TestExitCodeError(t *testing.T) {
	t.Run("NewExitCodeError creates error with code", func(t *testing.T) {
		err := NewExitCodeError(42)
		if err.Code != 42 {
			t.Errorf("Code = %d, want 42", err.Code)
		}
	})

	t.Run("Error returns formatted message", func(t *testing.T) {
		err := NewExitCodeError(42)
		want := "exit code 42"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("errors.As matches wrapped ExitCodeError", func(t *testing.T) {
		inner := NewExitCodeError(5)
		wrapped := errors.Join(errors.New("wrapper"), inner)
		var exitErr *ExitCodeError
		if !errors.As(wrapped, &exitErr) {
			t.Fatal("errors.As failed to match wrapped ExitCodeError")
		}
		if exitErr.Code != 5 {
			t.Errorf("Code = %d, want 5", exitErr.Code)
		}
	})

	t.Run("Unwrap exposes the cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := &ExitCodeError{Code: 1, Err: cause}
		if !errors.Is(err, cause) {
			t.Error("errors.Is(err, cause) = false")
		}
	})
}

func TestWithExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"blocked command", &service.BlockedError{Command: "rm -rf /", Reason: "nope"}, exitBlocked},
		{"denied path", fmt.Errorf("read: %w", &fsgateway.AccessDeniedError{Op: fsgateway.OpRead, Path: "/etc/shadow", Reason: "restricted"}), exitBlocked},
		{"provider failure", &fsgateway.ProviderConnectionError{Err: errors.New("no binary")}, exitFailure},
		{"other", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exitErr *ExitCodeError
			if !errors.As(withExitCode(tt.err), &exitErr) {
				t.Fatal("withExitCode() did not return an ExitCodeError")
			}
			if exitErr.Code != tt.want {
				t.Errorf("Code = %d, want %d", exitErr.Code, tt.want)
			}
			if exitErr.Err != tt.err {
				t.Errorf("Err = %v, want %v", exitErr.Err, tt.err)
			}
		})
	}

	if withExitCode(nil) != nil {
		t.Error("withExitCode(nil) should be nil")
	}
}
