package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relicta-tech/changeplan/internal/application/planning"
	"github.com/relicta-tech/changeplan/internal/domain/changes"
)

var (
	addReleases []string
	addSummary  string
	addEmpty    bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a changeset",
	Long: `Write a new changeset file naming the packages to release.

Each --release flag takes the form name:type where type is one of major,
minor, patch or none.`,
	Example: `  changeplan add --release @acme/core:minor --release @acme/ui:patch --summary "Add theming"
  changeplan add --empty`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringArrayVarP(&addReleases, "release", "r", nil, "package release as name:type (repeatable)")
	addCmd.Flags().StringVarP(&addSummary, "summary", "m", "", "summary of the change")
	addCmd.Flags().BoolVar(&addEmpty, "empty", false, "add a changeset that releases nothing")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	releases, err := parseReleaseFlags(addReleases)
	if err != nil {
		return err
	}

	c, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	output, err := c.AddChangeset().Execute(ctx, planning.AddChangesetInput{
		Releases: releases,
		Summary:  addSummary,
		Empty:    addEmpty,
	})
	if err != nil {
		return fmt.Errorf("failed to add changeset: %w", err)
	}

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return outputChangesetJSON(out, output.Changeset)
	}
	if isQuiet() {
		return nil
	}
	path := filepath.Join(c.ChangesetDir(), output.ID+".md")
	if rel, err := filepath.Rel(c.Root(), path); err == nil {
		path = rel
	}
	printSuccess(out, fmt.Sprintf("Changeset added: %s", path))
	for _, r := range output.Changeset.Releases {
		printSubtle(out, fmt.Sprintf("  %s: %s", r.Name, r.Type))
	}
	return nil
}

// parseReleaseFlags parses name:type pairs. The last colon separates the
// type so scoped names keep working.
func parseReleaseFlags(values []string) ([]changes.Release, error) {
	releases := make([]changes.Release, 0, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, ":")
		if i <= 0 || i == len(v)-1 {
			return nil, fmt.Errorf("invalid release %q, expected name:type", v)
		}
		typ, err := changes.ParseReleaseType(v[i+1:])
		if err != nil {
			return nil, fmt.Errorf("invalid release %q: %w", v, err)
		}
		releases = append(releases, changes.Release{Name: strings.TrimSpace(v[:i]), Type: typ})
	}
	return releases, nil
}
