package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildInfo struct {
	version, commit, date string
}

// SetVersionInfo records the build information printed by the version
// command.
func SetVersionInfo(version, commit, date string) {
	buildInfo.version, buildInfo.commit, buildInfo.date = version, commit, date
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "changeplan %s\n", buildInfo.version)
		if flags.verbose {
			fmt.Fprintf(out, "  commit: %s\n  built:  %s\n", buildInfo.commit, buildInfo.date)
		}
	},
}
