// Package cmd implements the CLI commands for hostgate.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/config"
	"github.com/xdg/hostgate/internal/term"
	"github.com/xdg/hostgate/internal/version"
)

var (
	debugFlag  bool
	silentFlag bool
	configFlag string
)

// loaded is the configuration read by the root pre-run hook.
var loaded *config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hostgate",
	Short: "Guarded host command execution and file access",
	Long: `Hostgate is a fail-closed gate between an AI agent and the host.

Every command is checked against a whitelist of read-only tools after
blacklist and shell-injection screening, and runs without a shell. Every
path is checked for traversal, encoding tricks, restricted locations and
symlink escapes before a sandboxed filesystem provider touches it.

Decisions and outcomes are recorded in the audit log.`,
	Version:           version.String(),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debugFlag, "debug", false, "Log at debug level")
	flags.BoolVar(&silentFlag, "silent", false, "Suppress normal output")
	flags.StringVar(&configFlag, "config", "", "Config file (default "+config.Path()+")")
}

// setup loads the configuration and configures logging and output for
// commands that use the gate.
func setup(cmd *cobra.Command, args []string) error {
	term.SetSilent(silentFlag)

	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	level := cfg.LogLevel()
	if debugFlag {
		level = clog.LevelDebug
	}
	if err := clog.Configure(cfg.Log.File, level, false); err != nil {
		term.Warn("file logging disabled: %v", err)
	}
	clog.Debug("hostgate %s: %s", version.Version, cmd.CommandPath())

	loaded = cfg
	return nil
}

// Execute runs the root command and returns any error. Errors are reported
// to the user here; the caller only maps them to an exit status.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		report(err)
	}
	return err
}

func report(err error) {
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			term.Error("%v", exitErr.Err)
		}
		return
	}
	term.Error("%v", err)
}

// currentConfig returns the loaded configuration, or an error when the
// pre-run hook was bypassed.
func currentConfig() (*config.Config, error) {
	if loaded == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return loaded, nil
}
