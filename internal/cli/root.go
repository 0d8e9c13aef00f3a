// Package cli implements the changeplan command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/changeplan/internal/config"
	"github.com/relicta-tech/changeplan/internal/container"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	workDir    string
	verbose    bool
	quiet      bool
	json       bool
	noColor    bool
	logLevel   string
}

var (
	flags = globalFlags{workDir: "."}

	// cfg is the loaded configuration with the global flags applied.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "changeplan",
	Short: "Plan monorepo releases from changesets",
	Long: `changeplan computes release plans for multi-package repositories.

Contributors describe their changes in small changeset files that name the
packages to release and how severe each release is. changeplan reads them
together with the workspace dependency graph and works out every package
that has to be released, and at which version.

It understands npm and Cargo workspaces, fixed and linked package groups,
pre mode and snapshot releases.

Run 'changeplan init' in the repository root to get started.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "init", "version", "help":
			configureLogger(nil)
			return nil
		}
		if err := loadConfig(); err != nil {
			return err
		}
		configureLogger(cfg)
		return openLogFile(cfg.Output.LogFile)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the command line. Canceling ctx stops long running
// commands such as plan --watch.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default: .changeplan.yaml in the workspace root)")
	pf.StringVarP(&flags.workDir, "cwd", "C", ".", "workspace root directory")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "only print errors")
	pf.BoolVar(&flags.json, "json", false, "output results as JSON")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd, initCmd, planCmd, preCmd, addCmd)
}

// loadConfig reads the workspace configuration, lets the global flags
// override it and validates the result.
func loadConfig() error {
	loader := config.NewLoader().WithSearchPaths(flags.workDir)
	if flags.configPath != "" {
		loader.WithConfigPath(flags.configPath)
	}

	loaded, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flags.applyTo(loaded)

	if err := config.Validate(loaded); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded
	return nil
}

func (f globalFlags) applyTo(c *config.Config) {
	if f.verbose {
		c.Output.Verbose = true
	}
	if f.quiet {
		c.Output.Quiet = true
	}
	if f.json {
		c.Output.Format = "json"
	}
	if f.noColor {
		c.Output.Color = false
	}
	if f.logLevel != "" {
		c.Output.LogLevel = f.logLevel
	}
}

// newContainer wires the use cases for the workspace at --cwd.
func newContainer(ctx context.Context) (*container.Container, error) {
	c, err := container.NewInitialized(ctx, flags.workDir, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return c, nil
}

// IsJSONOutput reports whether results are printed as JSON.
func IsJSONOutput() bool {
	return flags.json || (cfg != nil && cfg.Output.Format == "json")
}

func isQuiet() bool {
	return flags.quiet || (cfg != nil && cfg.Output.Quiet)
}
