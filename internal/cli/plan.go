package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/relicta-tech/changeplan/internal/application/planning"
	"github.com/relicta-tech/changeplan/internal/container"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	"github.com/relicta-tech/changeplan/internal/infrastructure/manifest"
)

var (
	planSince       string
	planSnapshot    bool
	planSnapshotTag string
	planWatch       bool
)

// watchDebounce groups bursts of file events into one re-plan.
const watchDebounce = 300 * time.Millisecond

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the release plan from pending changesets",
	Long: `Compute which packages must be released, and at which version.

The plan combines the pending changesets with the workspace dependency
graph, the fixed and linked groups from the configuration and the pre mode
state. Nothing is written.`,
	Example: `  # Plan every pending changeset
  changeplan plan

  # Only changesets added on this branch
  changeplan plan --since main

  # Snapshot versions for a canary release
  changeplan plan --snapshot --snapshot-tag canary --json`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planSince, "since", "", "only use changesets added since the branch diverged from this ref")
	planCmd.Flags().BoolVar(&planSnapshot, "snapshot", false, "compute snapshot versions")
	planCmd.Flags().StringVar(&planSnapshotTag, "snapshot-tag", "", "tag substituted into snapshot versions")
	planCmd.Flags().BoolVarP(&planWatch, "watch", "w", false, "re-plan whenever changesets or manifests change")
}

// runPlan implements the plan command.
func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	input := planning.PlanReleaseInput{
		Since:       planSince,
		Snapshot:    planSnapshot,
		SnapshotTag: planSnapshotTag,
	}

	if planWatch {
		return watchPlan(ctx, cmd.OutOrStdout(), c, input)
	}
	_, err = planOnce(ctx, cmd.OutOrStdout(), c, input)
	return err
}

func planOnce(ctx context.Context, w io.Writer, c *container.Container, input planning.PlanReleaseInput) (*planning.PlanReleaseOutput, error) {
	output, err := c.PlanRelease().Execute(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to plan release: %w", err)
	}

	if IsJSONOutput() {
		return output, outputPlanJSON(w, output)
	}
	if !isQuiet() {
		outputPlanText(w, output)
	}
	return output, nil
}

// planWatchSet tracks the directories a watched plan reads. Any file in the
// changeset or pre-state directory counts; in package directories only the
// manifests do.
type planWatchSet struct {
	root string
	meta map[string]bool
	dirs map[string]bool
}

func newPlanWatchSet(root, changesetDir, preStateFile string) *planWatchSet {
	s := &planWatchSet{root: root, meta: map[string]bool{}, dirs: map[string]bool{}}
	for _, dir := range []string{changesetDir, filepath.Dir(preStateFile)} {
		s.meta[filepath.Clean(dir)] = true
	}
	return s
}

// initial lists the changeset and pre-state directories.
func (s *planWatchSet) initial() []string {
	return s.take(slices.Collect(maps.Keys(s.meta)))
}

// addPackages returns the package directories not watched yet.
func (s *planWatchSet) addPackages(pkgs *workspace.Packages) []string {
	if pkgs == nil {
		return nil
	}
	var dirs []string
	for _, p := range pkgs.All() {
		dirs = append(dirs, filepath.Join(s.root, filepath.FromSlash(p.Dir)))
	}
	return s.take(dirs)
}

func (s *planWatchSet) take(dirs []string) []string {
	var fresh []string
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if !s.dirs[dir] {
			s.dirs[dir] = true
			fresh = append(fresh, dir)
		}
	}
	slices.Sort(fresh)
	return fresh
}

func (s *planWatchSet) relevant(name string) bool {
	if s.meta[filepath.Dir(filepath.Clean(name))] {
		return true
	}
	switch filepath.Base(name) {
	case manifest.NPMManifestFile, manifest.CargoManifestFile:
		return true
	}
	return false
}

// watchPlan prints a plan, then prints a fresh one after every change to a
// changeset, the pre state or a package manifest until ctx is canceled.
func watchPlan(ctx context.Context, w io.Writer, c *container.Container, input planning.PlanReleaseInput) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	set := newPlanWatchSet(c.Root(), c.ChangesetDir(), c.PreStateFile())
	for _, dir := range set.initial() {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	report := func() {
		output, err := planOnce(ctx, w, c, input)
		if err != nil {
			logger.Error("plan failed", "error", err)
			return
		}
		for _, dir := range set.addPackages(output.Packages) {
			if err := watcher.Add(dir); err != nil {
				logger.Warn("cannot watch package", "dir", dir, "error", err)
			}
		}
	}
	report()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || !set.relevant(event.Name) {
				continue
			}
			logger.Debug("change detected", "file", filepath.Base(event.Name), "op", event.Op.String())
			timer.Reset(watchDebounce)

		case <-timer.C:
			if !IsJSONOutput() {
				fmt.Fprintf(w, "\n[%s] Changes detected, re-planning\n\n", time.Now().Format("15:04:05"))
			}
			report()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
