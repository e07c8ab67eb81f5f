package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xdg/hostgate/internal/audit"
	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/cmdguard"
	"github.com/xdg/hostgate/internal/config"
	"github.com/xdg/hostgate/internal/executor"
	"github.com/xdg/hostgate/internal/fsgateway"
	"github.com/xdg/hostgate/internal/pathguard"
	"github.com/xdg/hostgate/internal/provider"
	"github.com/xdg/hostgate/internal/rules"
	"github.com/xdg/hostgate/internal/service"
)

// app holds the gate assembled from one configuration.
type app struct {
	cfg         *config.Config
	projectRoot string
	commands    *cmdguard.Validator
	paths       *pathguard.Validator

	terminal *service.TerminalService
	files    *service.FilesystemService

	auditFile io.Closer
}

// newValidators builds the command and path validators without touching
// the audit log or the provider.
func newValidators(cfg *config.Config) (*cmdguard.Validator, *pathguard.Validator, string, error) {
	platform, err := cfg.RulePlatform()
	if err != nil {
		return nil, nil, "", err
	}
	projectRoot := cfg.ProjectRoot
	if projectRoot == "" {
		if projectRoot, err = os.Getwd(); err != nil {
			return nil, nil, "", fmt.Errorf("determine project root: %w", err)
		}
	}

	rs := rules.ForPlatform(platform).WithExtraRestricted(cfg.Paths.ExtraRestricted...)
	clog.Debug("rules: platform=%s project_root=%s", platform, projectRoot)
	return cmdguard.New(rs), pathguard.New(rs, pathguard.Options{ProjectRoot: projectRoot}), projectRoot, nil
}

// newApp wires validators, executor, provider gateway and services.
// Close must be called to stop the provider and the audit log.
func newApp(cfg *config.Config) (*app, error) {
	commands, paths, projectRoot, err := newValidators(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, projectRoot: projectRoot, commands: commands, paths: paths}

	var opts []service.Option
	if cfg.Log.AuditFile != "" {
		logger, closer, err := audit.OpenFile(cfg.Log.AuditFile)
		if err != nil {
			return nil, err
		}
		a.auditFile = closer
		opts = append(opts, service.WithAuditLogger(logger))
	}

	workdir := cfg.Command.Workdir
	if workdir == "" {
		workdir = projectRoot
	}
	exec := executor.NewRealExecutor(
		executor.WithTimeout(cfg.CommandTimeout()),
		executor.WithWorkdir(workdir),
	)
	a.terminal = service.NewTerminalService(commands, exec, opts...)

	provOpts, err := providerOptions(cfg, projectRoot)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	gateway := fsgateway.New(paths, fsgateway.ProviderStarter(provOpts))
	a.files = service.NewFilesystemService(gateway, opts...)
	return a, nil
}

// providerOptions returns the configured provider, or this binary's
// built-in `provider serve` when none is configured.
func providerOptions(cfg *config.Config, projectRoot string) (provider.Options, error) {
	command := cfg.Filesystem.Provider.Command
	if len(command) == 0 {
		self, err := os.Executable()
		if err != nil {
			return provider.Options{}, fmt.Errorf("locate hostgate binary: %w", err)
		}
		command = []string{self, "provider", "serve"}
		if debugFlag {
			command = append(command, "--debug")
		}
		if !cfg.LandlockEnabled() {
			command = append(command, "--no-landlock")
		}
		command = append(command, "--")
	}
	return provider.Options{
		Command:      command,
		Roots:        cfg.ProviderRoots(projectRoot),
		Dir:          projectRoot,
		StartTimeout: cfg.ProviderStartTimeout(),
		CallTimeout:  cfg.ProviderCallTimeout(),
	}, nil
}

// Close stops the provider session and closes the audit log.
func (a *app) Close() error {
	var errs []error
	if a.terminal != nil {
		errs = append(errs, a.terminal.Disconnect())
	}
	if a.files != nil {
		errs = append(errs, a.files.Disconnect())
	}
	if a.auditFile != nil {
		errs = append(errs, a.auditFile.Close())
	}
	return errors.Join(errs...)
}

// closeApp closes a and logs any failure.
func closeApp(a *app) {
	if err := a.Close(); err != nil {
		clog.Warn("shutdown: %v", err)
	}
}
