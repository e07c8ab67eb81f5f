package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xdg/hostgate/internal/rules"
	"github.com/xdg/hostgate/internal/term"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a command or path without running it",
	Long: `Run a command or path through its validator and print the verdict.

Nothing is executed or opened. The exit status is 0 when the input is
allowed and 2 when it is blocked.`,
}

var checkCommandCmd = &cobra.Command{
	Use:   "command <command>",
	Short: "Validate a command",
	Long: `Validate a command exactly as 'hostgate exec' would.

Quote the command so that it reaches hostgate as a single argument:

  hostgate check command "ls -la"`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckCommand,
}

var checkPathCmd = &cobra.Command{
	Use:   "path <path>",
	Short: "Validate a path",
	Long: `Validate a path exactly as 'hostgate fs' would. Relative paths resolve
against the project root.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckPath,
}

func init() {
	checkCmd.PersistentFlags().BoolVar(&checkJSON, "json", false, "Print the verdict as JSON")
	checkCmd.AddCommand(checkCommandCmd)
	checkCmd.AddCommand(checkPathCmd)
	rootCmd.AddCommand(checkCmd)
}

func runCheckCommand(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	commands, _, _, err := newValidators(cfg)
	if err != nil {
		return err
	}
	return printVerdict(commands.Validate(args[0]))
}

func runCheckPath(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	_, paths, _, err := newValidators(cfg)
	if err != nil {
		return err
	}
	return printVerdict(paths.IsSafe(args[0]))
}

// printVerdict prints v and returns an exit status of 2 when it denies.
func printVerdict(v rules.Verdict) error {
	if checkJSON {
		if err := term.JSON(v); err != nil {
			return err
		}
	} else if v.Valid {
		term.Println("allowed")
	} else {
		term.Printf("blocked: %s\n", v.Reason)
	}
	if !v.Valid {
		return NewExitCodeError(exitBlocked)
	}
	return nil
}
