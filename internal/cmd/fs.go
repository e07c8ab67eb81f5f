package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xdg/hostgate/internal/term"
)

var fsJSON bool

var fsCmd = &cobra.Command{
	Use:   "fs",
	Short: "Read, write and list files through the sandboxed provider",
	Long: `Access files through the filesystem provider after path validation.

The provider is started only once a path has passed validation, and only
ever sees the configured roots (the project root by default). A denied
path exits 2 without starting it.`,
}

var fsReadCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Print a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFSRead,
}

var fsWriteCmd = &cobra.Command{
	Use:   "write <path> [content]",
	Short: "Replace a file's content",
	Long: `Replace a file's content with the given argument, or with standard
input when no content argument is given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFSWrite,
}

var fsListCmd = &cobra.Command{
	Use:     "ls [path]",
	Aliases: []string{"list"},
	Short:   "List a directory (default: project root)",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runFSList,
}

func init() {
	fsCmd.PersistentFlags().BoolVar(&fsJSON, "json", false, "Print the result as JSON")
	fsCmd.AddCommand(fsReadCmd)
	fsCmd.AddCommand(fsWriteCmd)
	fsCmd.AddCommand(fsListCmd)
	rootCmd.AddCommand(fsCmd)
}

// withApp builds the gate, runs fn and shuts the provider down.
func withApp(fn func(a *app) error) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer closeApp(a)
	return withExitCode(fn(a))
}

func runFSRead(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		res, err := a.files.ReadFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if fsJSON {
			return term.JSON(res)
		}
		term.Print(res.Content)
		return nil
	})
}

func runFSWrite(cmd *cobra.Command, args []string) error {
	content, err := writeContent(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		res, err := a.files.WriteFile(cmd.Context(), args[0], content)
		if err != nil {
			return err
		}
		if fsJSON {
			return term.JSON(res)
		}
		term.Block(res.Result)
		return nil
	})
}

func runFSList(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	return withApp(func(a *app) error {
		res, err := a.files.ListDirectory(cmd.Context(), path)
		if err != nil {
			return err
		}
		if fsJSON {
			return term.JSON(res)
		}
		term.Block(res.Contents)
		return nil
	})
}

// writeContent returns the content argument, or all of stdin.
func writeContent(stdin io.Reader, args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	if term.IsTerminal(stdin) {
		return "", fmt.Errorf("no content given: pass it as an argument or pipe it on stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read content from stdin: %w", err)
	}
	return string(data), nil
}
