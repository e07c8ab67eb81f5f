package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/hostgate/internal/term"
)

var execJSON bool

var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "Validate and run a command on the host",
	Long: `Validate a command and, if it is allowed, run it without a shell.

The command's combined output is printed and hostgate exits with the
command's own status. A blocked command exits 2 without running. A command
that exceeds the configured timeout is killed and exits 124.`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().BoolVar(&execJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer closeApp(a)

	result, err := a.terminal.ExecuteCommand(cmd.Context(), args[0])
	if err != nil {
		return withExitCode(err)
	}

	if execJSON {
		if err := term.JSON(result); err != nil {
			return err
		}
	} else {
		term.Block(result.Output)
	}

	switch {
	case result.TimedOut:
		return &ExitCodeError{Code: exitTimeout, Err: fmt.Errorf("command timed out after %s", result.Duration)}
	case result.Success:
		return nil
	case result.ExitCode == nil:
		return NewExitCodeError(exitFailure)
	default:
		return NewExitCodeError(*result.ExitCode)
	}
}
