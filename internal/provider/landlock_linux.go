//go:build linux

package provider

import (
	"fmt"

	"github.com/landlock-lsm/go-landlock/landlock"
	landlocksys "github.com/landlock-lsm/go-landlock/landlock/syscall"
	"golang.org/x/sys/unix"

	"github.com/xdg/hostgate/internal/clog"
)

// Confine restricts the current process to read/write access beneath roots.
// It is best effort: older kernels get whatever subset they support, and a
// kernel without Landlock leaves the process unconfined with a warning.
// Already open descriptors (stdin, stdout, the log file) stay usable.
func Confine(roots []string) error {
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("set no_new_privs: %w", err)
	}

	abi, err := landlocksys.LandlockGetABIVersion()
	if err != nil {
		clog.Warn("landlock unavailable on this kernel, provider is not confined: %v", err)
		return nil
	}

	if err := landlockConfig(abi).BestEffort().RestrictPaths(landlock.RWDirs(roots...)); err != nil {
		return fmt.Errorf("apply landlock: %w", err)
	}
	clog.Debug("landlock ABI v%d applied to %d root(s)", abi, len(roots))
	return nil
}

func landlockConfig(abi int) landlock.Config {
	switch {
	case abi >= 7:
		return landlock.V7
	case abi == 6:
		return landlock.V6
	case abi == 5:
		return landlock.V5
	case abi == 4:
		return landlock.V4
	case abi == 3:
		return landlock.V3
	case abi == 2:
		return landlock.V2
	default:
		return landlock.V1
	}
}
