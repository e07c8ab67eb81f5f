package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/provider"
)

var noLandlock bool

var providerCmd = &cobra.Command{
	Use:    "provider",
	Short:  "Filesystem provider (internal)",
	Hidden: true, // Started by hostgate fs, not by users
}

var providerServeCmd = &cobra.Command{
	Use:   "serve [--no-landlock] ROOT...",
	Short: "Serve file tools over stdio (internal)",
	Long: `Serve read_text_file, write_file and list_directory over newline-delimited
JSON-RPC on stdin and stdout, confined to the given roots.

This command is started by 'hostgate fs' and should not normally be invoked
directly. On Linux the process confines itself to the roots with Landlock
unless --no-landlock is given. Logs go to stderr, which the parent relays
into its own log.`,
	Hidden:            true,
	Args:              cobra.MinimumNArgs(1),
	PersistentPreRunE: setupProvider,
	RunE:              runProviderServe,
}

func init() {
	providerServeCmd.Flags().BoolVar(&noLandlock, "no-landlock", false, "Do not confine the provider with Landlock")
	providerCmd.AddCommand(providerServeCmd)
	rootCmd.AddCommand(providerCmd)
}

// setupProvider replaces the root pre-run hook. stdout carries the protocol,
// so nothing but protocol frames may be written there.
func setupProvider(cmd *cobra.Command, args []string) error {
	level := clog.LevelInfo
	if debugFlag {
		level = clog.LevelDebug
	}
	if err := clog.Configure("", level, true); err != nil {
		return err
	}
	clog.SetFileOutput(os.Stderr)
	return nil
}

func runProviderServe(cmd *cobra.Command, args []string) error {
	return provider.RunServer(cmd.Context(), provider.ServeOptions{
		Roots:    args,
		Landlock: !noLandlock,
		In:       cmd.InOrStdin(),
		Out:      cmd.OutOrStdout(),
	})
}
