package planning

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/relicta-tech/changeplan/internal/config"
	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/releaseplan"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// PlanReleaseInput represents the input for the PlanRelease use case.
type PlanReleaseInput struct {
	// Since restricts the plan to changesets added after the branch
	// diverged from this git ref.
	Since string
	// Snapshot requests snapshot versions.
	Snapshot bool
	// SnapshotTag is substituted for {tag} in snapshot versions.
	SnapshotTag string
}

// Validate validates the PlanReleaseInput.
func (i *PlanReleaseInput) Validate() error {
	// Allow ~ and ^ for revision navigation (e.g. HEAD~1, main^)
	if i.Since != "" && strings.ContainsAny(i.Since, ":?*[\\ ") {
		return fmt.Errorf("invalid since reference: %s", i.Since)
	}
	if i.SnapshotTag != "" {
		if !i.Snapshot {
			return fmt.Errorf("snapshot tag %q given without snapshot", i.SnapshotTag)
		}
		for _, r := range i.SnapshotTag {
			if !(r == '-' || r == '.' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
				return fmt.Errorf("snapshot tag contains invalid characters: %s", i.SnapshotTag)
			}
		}
	}
	return nil
}

// PlanReleaseOutput represents the output of the PlanRelease use case.
type PlanReleaseOutput struct {
	Plan     *releaseplan.Plan
	Packages *workspace.Packages
	// Warnings collects non-fatal configuration and workspace problems.
	Warnings []string
}

// PlanReleaseUseCase computes the release plan of a workspace.
type PlanReleaseUseCase struct {
	ws         Workspace
	packages   PackageLoader
	changesets ChangesetSource
	preState   PreStateStore
	gitRepo    GitRepository
	now        func() time.Time
	logger     *slog.Logger
}

// NewPlanReleaseUseCase creates a new PlanReleaseUseCase. gitRepo may be nil
// when the workspace is not a git repository; --since and {commit} are then
// unavailable.
func NewPlanReleaseUseCase(
	ws Workspace,
	packages PackageLoader,
	changesets ChangesetSource,
	preState PreStateStore,
	gitRepo GitRepository,
) *PlanReleaseUseCase {
	return &PlanReleaseUseCase{
		ws:         ws,
		packages:   packages,
		changesets: changesets,
		preState:   preState,
		gitRepo:    gitRepo,
		now:        time.Now,
		logger:     slog.Default().With("usecase", "plan_release"),
	}
}

// WithClock sets the clock used for snapshot timestamps.
func (uc *PlanReleaseUseCase) WithClock(now func() time.Time) *PlanReleaseUseCase {
	uc.now = now
	return uc
}

// Execute executes the plan release use case.
func (uc *PlanReleaseUseCase) Execute(ctx context.Context, input PlanReleaseInput) (*PlanReleaseOutput, error) {
	const op = "planning.PlanRelease"

	if err := input.Validate(); err != nil {
		return nil, cperrors.ValidationWrap(err, op, "invalid input")
	}

	pkgs, err := uc.packages.Load(ctx, uc.ws.Root, uc.ws.discoverOptions())
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("packages discovered", "count", pkgs.Len())

	out := &PlanReleaseOutput{Packages: pkgs}

	validator := config.NewValidator().WithPackages(pkgs)
	if err := validator.Validate(uc.ws.Config); err != nil {
		return nil, err
	}
	for _, w := range validator.Result().Warnings {
		uc.logger.Warn("configuration warning", "warning", w)
		out.Warnings = append(out.Warnings, w)
	}

	cs, err := uc.readChangesets(ctx, input.Since)
	if err != nil {
		return nil, err
	}

	pre, err := uc.preState.Load(ctx)
	if err != nil {
		return nil, err
	}
	if pre != nil && input.Snapshot {
		return nil, cperrors.State(op, "snapshot release is not allowed in pre mode").
			WithDetail("tag", pre.Tag)
	}

	planCfg := uc.ws.Config.PlanConfig()

	_, mismatches := workspace.BuildDependentsGraph(pkgs, workspace.GraphOptions{
		WorkspaceProtocolOnly: planCfg.BumpVersionsWithWorkspaceProtocolOnly,
	})
	for _, m := range mismatches {
		w := fmt.Sprintf("%s depends on %s@%s (%s) but the workspace has %s",
			m.Dependent, m.Dependency, m.Range, m.Kind, m.Version)
		uc.logger.Warn("dependency range does not match workspace version",
			"dependent", m.Dependent,
			"dependency", m.Dependency,
			"range", m.Range,
			"version", m.Version)
		out.Warnings = append(out.Warnings, w)
	}

	var snapshot *releaseplan.SnapshotParams
	if input.Snapshot {
		snapshot, err = uc.snapshotParams(ctx, planCfg.Snapshot, input.SnapshotTag)
		if err != nil {
			return nil, err
		}
	}

	plan, err := releaseplan.Assemble(cs, pkgs, planCfg, pre, snapshot, releaseplan.WithClock(uc.now))
	if err != nil {
		return nil, err
	}

	uc.logger.Info("release plan computed",
		"changesets", len(plan.Changesets),
		"releases", len(plan.Releases),
		"snapshot", input.Snapshot)

	out.Plan = plan
	return out, nil
}

func (uc *PlanReleaseUseCase) readChangesets(ctx context.Context, since string) ([]changes.Changeset, error) {
	const op = "planning.readChangesets"

	if since == "" {
		return uc.changesets.ReadAll(ctx)
	}
	if uc.gitRepo == nil {
		return nil, cperrors.Git(op, "--since requires a git repository")
	}

	files, err := uc.gitRepo.ChangedFilesSince(ctx, since, uc.changesets.Dir())
	if err != nil {
		return nil, err
	}
	ids := changesetIDs(files)
	uc.logger.Debug("changesets added since ref", "ref", since, "count", len(ids))
	if len(ids) == 0 {
		return []changes.Changeset{}, nil
	}
	return uc.changesets.ReadSince(ctx, ids)
}

func (uc *PlanReleaseUseCase) snapshotParams(ctx context.Context, cfg releaseplan.SnapshotConfig, tag string) (*releaseplan.SnapshotParams, error) {
	const op = "planning.snapshotParams"

	params := &releaseplan.SnapshotParams{Tag: tag}
	if !strings.Contains(cfg.PrereleaseTemplate, releaseplan.PlaceholderCommit) {
		return params, nil
	}
	if uc.gitRepo == nil {
		return nil, cperrors.Git(op, "snapshot template uses {commit} outside a git repository")
	}
	commit, err := uc.gitRepo.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	params.Commit = commit
	return params, nil
}

// changesetIDs maps changed file paths to changeset ids.
func changesetIDs(files []string) []string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		name := path.Base(f)
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") || name == "README.md" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".md"))
	}
	return ids
}
