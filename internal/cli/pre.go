package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/changeplan/internal/application/planning"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
)

var preCmd = &cobra.Command{
	Use:   "pre",
	Short: "Manage prerelease mode",
	Long: `Enter or exit pre mode.

While in pre mode every plan computes prerelease versions such as
1.1.0-beta.0. Exiting pre mode makes the next plan release the stable
versions of every package that shipped a prerelease.`,
}

var preEnterCmd = &cobra.Command{
	Use:   "enter <tag>",
	Short: "Enter pre mode with a prerelease tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreEnter,
}

var preExitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Exit pre mode",
	Args:  cobra.NoArgs,
	RunE:  runPreExit,
}

var preRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record the current plan as released",
	Long: `Record the changesets of the current plan as consumed by a prerelease.

Run this after the versions of the current plan have been applied. Once
an exiting plan is recorded the pre state file is removed.`,
	Args: cobra.NoArgs,
	RunE: runPreRecord,
}

func init() {
	preCmd.AddCommand(preEnterCmd)
	preCmd.AddCommand(preExitCmd)
	preCmd.AddCommand(preRecordCmd)
}

func runPreEnter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	state, err := c.PreMode().Enter(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to enter pre mode: %w", err)
	}

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return outputStateJSON(out, state)
	}
	if !isQuiet() {
		printSuccess(out, fmt.Sprintf("Entered pre mode with tag %s", styles.Bold.Render(state.Tag)))
		printInfo(out, "Run `changeplan plan` to see the prerelease versions")
	}
	return nil
}

func runPreExit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	state, err := c.PreMode().Exit(ctx)
	if err != nil {
		return fmt.Errorf("failed to exit pre mode: %w", err)
	}

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return outputStateJSON(out, state)
	}
	if !isQuiet() {
		printSuccess(out, "Exiting pre mode")
		printInfo(out, "The next plan releases stable versions")
	}
	return nil
}

func runPreRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	output, err := c.PlanRelease().Execute(ctx, planning.PlanReleaseInput{})
	if err != nil {
		return fmt.Errorf("failed to plan release: %w", err)
	}
	if output.Plan.PreState == nil {
		return fmt.Errorf("not in pre mode")
	}

	state, err := c.PreMode().Record(ctx, output.Plan.PreState)
	if err != nil {
		return fmt.Errorf("failed to record pre state: %w", err)
	}

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return outputStateJSON(out, state)
	}
	if isQuiet() {
		return nil
	}
	if state == nil {
		printSuccess(out, "Pre mode finished")
		return nil
	}
	printSuccess(out, fmt.Sprintf("Recorded %d changesets", len(state.Changesets)))
	return nil
}

// outputStateJSON writes a pre state, or null when there is none.
func outputStateJSON(w io.Writer, state *prerelease.State) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(state)
}
