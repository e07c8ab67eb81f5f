//go:build windows

package executor

import "os/exec"

var envKeys = []string{"PATH", "SystemRoot", "USERPROFILE", "USERNAME", "TEMP"}

const literalBackslash = true

func setProcessGroup(_ *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
