package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/changeplan/internal/config"
	"github.com/relicta-tech/changeplan/internal/fileutil"
)

var initFormat string

// changesetReadme is written into a fresh changeset directory.
const changesetReadme = `# Changesets

This directory holds changesets: markdown files that name the packages to
release and how severe each release is.

    ---
    "@acme/core": minor
    "@acme/ui": patch
    ---

    Add theming support

Create one with ` + "`changeplan add`" + ` and preview the result with
` + "`changeplan plan`" + `.
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize changeplan in a workspace",
	Long: `Create a .changeplan configuration file with sensible defaults and
the changeset directory. Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initFormat, "format", "yaml", "config file format (yaml, json, toml)")
}

// runInit implements the init command.
func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	switch initFormat {
	case "yaml", "json", "toml":
	default:
		return fmt.Errorf("unsupported config format %q", initFormat)
	}

	if existing, err := config.FindConfigFile(flags.workDir); err == nil {
		printWarning(out, fmt.Sprintf("Config file already exists: %s", existing))
	} else {
		path := filepath.Join(flags.workDir, config.ConfigFileName+"."+initFormat)
		if err := config.WriteDefault(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		printSuccess(out, fmt.Sprintf("Created %s", path))
	}

	readme := filepath.Join(flags.workDir, config.DefaultConfig().Workspace.ChangesetDir, "README.md")
	err := fileutil.WriteNewFile(readme, []byte(changesetReadme), 0o644)
	switch {
	case err == nil:
		printSuccess(out, fmt.Sprintf("Created %s", readme))
	case errors.Is(err, fs.ErrExist):
		printSubtle(out, fmt.Sprintf("%s already exists", readme))
	default:
		return fmt.Errorf("failed to create changeset directory: %w", err)
	}

	fmt.Fprintln(out)
	printInfo(out, "Next: add a changeset with `changeplan add`")
	return nil
}
