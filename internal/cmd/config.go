package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/hostgate/internal/config"
	"github.com/xdg/hostgate/internal/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage hostgate's configuration.

The configuration file is stored at ~/.config/hostgate/config.yaml
(or $XDG_CONFIG_HOME/hostgate/config.yaml if XDG_CONFIG_HOME is set).
A different file can be given with --config.`,
	// The config commands must work while the file is invalid.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		term.SetSilent(silentFlag)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective config",
	Long: `Print the effective configuration as YAML, with defaults filled in and
~ expanded.

If no config file exists, shows the default configuration.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default config file",
	Long: `Create the default configuration file if it doesn't exist.

This creates a fully-commented configuration file with all default values.
If the file already exists, this command does nothing.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	return config.Path()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	term.Print(string(data))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	term.Println(configPath())
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if configFlag != "" {
		return fmt.Errorf("config init only creates the default file %s", config.Path())
	}
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	term.Printf("Config file: %s\n", config.Path())
	return nil
}
