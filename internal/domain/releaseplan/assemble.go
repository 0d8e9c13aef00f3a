package releaseplan

import (
	"slices"
	"strings"
	"time"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
)

// Option configures a plan computation.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Assemble computes the release plan for a workspace.
//
// Changesets are merged into one release per package, releases propagate to
// dependents, and fixed and linked groups are synchronized until nothing
// changes. When pre state is exiting, packages that shipped a prerelease get
// at least a patch release. Versions are attached last: snapshot versions
// when snapshot is non-nil, regular (pre)release versions otherwise.
//
// Inputs are not modified. The result does not depend on the order of
// changesets or packages.
func Assemble(
	cs []changes.Changeset,
	pkgs *workspace.Packages,
	cfg Config,
	preState *prerelease.State,
	snapshot *SnapshotParams,
	opts ...Option,
) (*Plan, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	cs = changes.SortedByID(cs)
	if err := validateChangesets(cs); err != nil {
		return nil, err
	}
	if err := validateGroups(pkgs, cfg); err != nil {
		return nil, err
	}

	relevant, err := relevantChangesets(cs, cfg, preState)
	if err != nil {
		return nil, err
	}
	pre, err := preInfo(cs, pkgs, cfg, preState)
	if err != nil {
		return nil, err
	}
	set, err := flattenReleases(relevant, pkgs, cfg)
	if err != nil {
		return nil, err
	}

	graph, _ := workspace.BuildDependentsGraph(pkgs, workspace.GraphOptions{
		WorkspaceProtocolOnly: cfg.BumpVersionsWithWorkspaceProtocolOnly,
	})
	prop := &propagation{pkgs: pkgs, graph: graph, pre: pre, cfg: cfg}

	for {
		dependentsChanged, err := prop.determineDependents(set)
		if err != nil {
			return nil, err
		}
		fixedChanged, err := matchFixedConstraint(set, pkgs, cfg)
		if err != nil {
			return nil, err
		}
		linksChanged, err := applyLinks(set, pkgs, cfg)
		if err != nil {
			return nil, err
		}
		if !dependentsChanged && !fixedChanged && !linksChanged {
			break
		}
	}

	if pre != nil && pre.Exiting() {
		backfillExit(set, pkgs, cfg, pre)
	}

	var suffix string
	if snapshot != nil {
		suffix, err = SnapshotSuffix(cfg.Snapshot.PrereleaseTemplate, *snapshot, o.now())
		if err != nil {
			return nil, err
		}
	}

	releases := set.values()
	slices.SortFunc(releases, func(a, b *InternalRelease) int {
		return strings.Compare(a.Name, b.Name)
	})

	plan := &Plan{
		Changesets: relevant,
		Releases:   make([]Release, 0, len(releases)),
	}
	if pre != nil {
		plan.PreState = pre.State
	}

	for _, r := range releases {
		var next string
		if suffix != "" {
			next, err = snapshotVersion(r, pre, cfg.Snapshot.UseCalculatedVersion, suffix)
		} else {
			next, err = newVersion(r, pre)
		}
		if err != nil {
			return nil, err
		}
		plan.Releases = append(plan.Releases, Release{
			Name:       r.Name,
			Type:       r.Type,
			OldVersion: r.OldVersion,
			NewVersion: next,
			Changesets: slices.Clone(r.Changesets),
		})
	}
	return plan, nil
}

// backfillExit gives every package that shipped a prerelease a real release
// when pre mode is exiting, even without a changeset targeting it.
func backfillExit(set *releaseSet, pkgs *workspace.Packages, cfg Config, pre *prerelease.Info) {
	for _, pkg := range pkgs.All() {
		if pre.Counter(pkg.Name) == 0 {
			continue
		}
		existing, ok := set.get(pkg.Name)
		switch {
		case !ok:
			set.put(&InternalRelease{
				Name:       pkg.Name,
				Type:       changes.ReleaseTypePatch,
				OldVersion: pkg.Version,
				Changesets: []string{},
			})
		case existing.Type == changes.ReleaseTypeNone && !cfg.isIgnored(pkg.Name):
			existing.Type = changes.ReleaseTypePatch
		}
	}
}
