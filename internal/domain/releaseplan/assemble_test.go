package releaseplan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

func TestAssemble_SimpleDependentBump(t *testing.T) {
	pkgs := mustPackages(t,
		dependsOn(newPkg("a", "1.0.0"), workspace.DependencyRuntime, "b", "1.0.0"),
		newPkg("b", "1.0.0"),
	)

	plan := assemble(t, []changes.Changeset{changeset("cs1", "b", "minor")}, pkgs, Config{})

	assert.Equal(t, map[string]string{
		"a": "patch 1.0.0->1.0.1",
		"b": "minor 1.0.0->1.1.0",
	}, summary(plan))

	a, ok := plan.Release("a")
	require.True(t, ok)
	assert.Empty(t, a.Changesets)
	assert.NotNil(t, a.Changesets)

	b, _ := plan.Release("b")
	assert.Equal(t, []string{"cs1"}, b.Changesets)
	assert.Nil(t, plan.PreState)
}

func TestAssemble_PeerMajorEscalation(t *testing.T) {
	pkgs := mustPackages(t,
		dependsOn(newPkg("a", "1.0.0"), workspace.DependencyPeer, "b", "^1.0.0"),
		newPkg("b", "1.0.0"),
	)

	plan := assemble(t, []changes.Changeset{changeset("cs1", "b", "major")}, pkgs, Config{})

	assert.Equal(t, map[string]string{
		"a": "major 1.0.0->2.0.0",
		"b": "major 1.0.0->2.0.0",
	}, summary(plan))
}

func TestAssemble_FixedGroupSync(t *testing.T) {
	pkgs := mustPackages(t, newPkg("x", "1.0.0"), newPkg("y", "1.2.0"), newPkg("z", "3.0.0"))
	cfg := Config{Fixed: [][]string{{"x", "y"}}}

	plan := assemble(t, []changes.Changeset{changeset("cs1", "x", "patch")}, pkgs, cfg)

	assert.Equal(t, map[string]string{
		"x": "patch 1.2.0->1.2.1",
		"y": "patch 1.2.0->1.2.1",
	}, summary(plan))
	y, _ := plan.Release("y")
	assert.Empty(t, y.Changesets)
}

func TestAssemble_FixedGroupSkipsIgnoredMembers(t *testing.T) {
	pkgs := mustPackages(t, newPkg("x", "1.0.0"), newPkg("y", "1.0.0"), newPkg("w", "1.0.0"))
	cfg := Config{Fixed: [][]string{{"x", "y", "w"}}, Ignore: []string{"w"}}

	plan := assemble(t, []changes.Changeset{changeset("cs1", "x", "minor")}, pkgs, cfg)

	assert.Equal(t, map[string]string{
		"x": "minor 1.0.0->1.1.0",
		"y": "minor 1.0.0->1.1.0",
	}, summary(plan))
}

func TestAssemble_PrereleaseExitBackfill(t *testing.T) {
	pkgs := mustPackages(t, newPkg("z", "1.0.1-beta.0"), newPkg("w", "1.0.0"))
	pre := &prerelease.State{
		Mode:            prerelease.ModeExit,
		Tag:             "beta",
		InitialVersions: map[string]string{"z": "1.0.0", "w": "1.0.0"},
		Changesets:      []string{"earlier"},
	}

	plan, err := Assemble(nil, pkgs, Config{}, pre, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"z": "patch 1.0.1-beta.0->1.0.1"}, summary(plan))
	z, _ := plan.Release("z")
	assert.Empty(t, z.Changesets)

	require.NotNil(t, plan.PreState)
	assert.Equal(t, prerelease.ModeExit, plan.PreState.Mode)
	assert.Empty(t, plan.PreState.Changesets)
	assert.Equal(t, []string{"earlier"}, pre.Changesets, "input pre state must not change")
}

func TestAssemble_ExitBackfillPromotesNoneRelease(t *testing.T) {
	pkgs := mustPackages(t,
		dependsOn(newPkg("a", "1.0.1-beta.0"), workspace.DependencyDev, "b", "^1.0.0"),
		newPkg("b", "1.0.0"),
	)
	pre := &prerelease.State{Mode: prerelease.ModeExit, Tag: "beta", InitialVersions: map[string]string{}}

	plan, err := Assemble([]changes.Changeset{changeset("cs1", "b", "major")}, pkgs, Config{}, pre, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a": "patch 1.0.1-beta.0->1.0.1",
		"b": "major 1.0.0->2.0.0",
	}, summary(plan))
}

func TestAssemble_PreMode(t *testing.T) {
	pkgs := mustPackages(t,
		newPkg("a", "1.0.0"),
		dependsOn(newPkg("b", "1.0.0"), workspace.DependencyRuntime, "a", "^1.0.0"),
	)
	pre := &prerelease.State{
		Mode:            prerelease.ModePre,
		Tag:             "beta",
		InitialVersions: map[string]string{"a": "1.0.0"},
		Changesets:      []string{"consumed"},
	}
	cs := []changes.Changeset{
		changeset("fresh", "a", "minor"),
		changeset("consumed", "a", "major"),
	}

	plan, err := Assemble(cs, pkgs, Config{}, pre, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a": "minor 1.0.0->1.1.0-beta.0",
		"b": "patch 1.0.0->1.0.1-beta.0",
	}, summary(plan))
	require.Len(t, plan.Changesets, 1)
	assert.Equal(t, "fresh", plan.Changesets[0].ID)

	require.NotNil(t, plan.PreState)
	assert.Equal(t, []string{"consumed", "fresh"}, plan.PreState.Changesets)
	assert.Equal(t, map[string]string{"a": "1.0.0", "b": "1.0.0"}, plan.PreState.InitialVersions)
}

func TestAssemble_PreModeCounterAdvances(t *testing.T) {
	pkgs := mustPackages(t, newPkg("a", "1.1.0-beta.0"))
	pre := &prerelease.State{Mode: prerelease.ModePre, Tag: "beta", InitialVersions: map[string]string{"a": "1.0.0"}}

	plan, err := Assemble([]changes.Changeset{changeset("next", "a", "patch")}, pkgs, Config{}, pre, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a": "patch 1.1.0-beta.0->1.1.0-beta.1"}, summary(plan))
}

func TestAssemble_PreModeDependentLeavesPrereleaseRange(t *testing.T) {
	pkgs := mustPackages(t,
		dependsOn(newPkg("a", "1.0.0-beta.0"), workspace.DependencyRuntime, "b", "^1.0.1-beta.0"),
		newPkg("b", "1.0.1-beta.0"),
	)
	pre := &prerelease.State{Mode: prerelease.ModePre, Tag: "beta", InitialVersions: map[string]string{}}

	plan, err := Assemble([]changes.Changeset{changeset("feat", "b", "minor")}, pkgs, Config{}, pre, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a": "patch 1.0.0-beta.0->1.0.0-beta.1",
		"b": "minor 1.0.1-beta.0->1.1.0-beta.1",
	}, summary(plan))
}

func TestAssemble_PreModePeerLeavesPrereleaseRange(t *testing.T) {
	pkgs := mustPackages(t,
		dependsOn(newPkg("a", "1.0.0-beta.0"), workspace.DependencyPeer, "b", "^1.0.1-beta.0"),
		newPkg("b", "1.0.1-beta.0"),
	)
	pre := &prerelease.State{Mode: prerelease.ModePre, Tag: "beta", InitialVersions: map[string]string{}}
	cfg := Config{OnlyUpdatePeerDependentsWhenOutOfRange: true}

	plan, err := Assemble([]changes.Changeset{changeset("feat", "b", "minor")}, pkgs, cfg, pre, nil)
	require.NoError(t, err)

	types := make(map[string]changes.ReleaseType, len(plan.Releases))
	for _, r := range plan.Releases {
		types[r.Name] = r.Type
	}
	assert.Equal(t, changes.ReleaseTypeMajor, types["a"])
}

func TestAssemble_PreModeGroupCounters(t *testing.T) {
	pkgs := mustPackages(t, newPkg("x", "1.0.0-beta.3"), newPkg("y", "1.0.0-beta.0"))
	pre := &prerelease.State{Mode: prerelease.ModePre, Tag: "beta", InitialVersions: map[string]string{}}
	cfg := Config{Fixed: [][]string{{"x", "y"}}}

	plan, err := Assemble([]changes.Changeset{changeset("cs1", "y", "patch")}, pkgs, cfg, pre, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"x": "patch 1.0.0-beta.3->1.0.0-beta.4",
		"y": "patch 1.0.0-beta.3->1.0.0-beta.4",
	}, summary(plan))
}

func TestAssemble_LinkedGroup(t *testing.T) {
	pkgs := mustPackages(t, newPkg("a", "1.0.0"), newPkg("b", "2.0.0"), newPkg("c", "1.5.0"))
	cfg := Config{Linked: [][]string{{"a", "b", "c"}}}
	cs := []changes.Changeset{
		changeset("cs1", "a", "minor"),
		changeset("cs2", "b", "patch"),
	}

	plan := assemble(t, cs, pkgs, cfg)

	assert.Equal(t, map[string]string{
		"a": "minor 2.0.0->2.1.0",
		"b": "minor 2.0.0->2.1.0",
	}, summary(plan))
}

func TestAssemble_DependencyKinds(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		kind workspace.DependencyKind
		rng  string
		bump string
		want map[string]string
	}{
		{
			name: "dev dependency records a none release",
			kind: workspace.DependencyDev, rng: "^1.0.0", bump: "major",
			want: map[string]string{"a": "none 1.0.0->1.0.0", "b": "major 1.0.0->2.0.0"},
		},
		{
			name: "runtime range still satisfied",
			kind: workspace.DependencyRuntime, rng: "^1.0.0", bump: "minor",
			want: map[string]string{"b": "minor 1.0.0->1.1.0"},
		},
		{
			name: "optional range left behind",
			kind: workspace.DependencyOptional, rng: "~1.0.0", bump: "minor",
			want: map[string]string{"a": "patch 1.0.0->1.0.1", "b": "minor 1.0.0->1.1.0"},
		},
		{
			name: "always update dependents",
			cfg:  Config{UpdateInternalDependents: UpdateDependentsAlways},
			kind: workspace.DependencyRuntime, rng: "^1.0.0", bump: "patch",
			want: map[string]string{"a": "patch 1.0.0->1.0.1", "b": "patch 1.0.0->1.0.1"},
		},
		{
			name: "workspace star pins the exact version",
			kind: workspace.DependencyRuntime, rng: "workspace:*", bump: "patch",
			want: map[string]string{"a": "patch 1.0.0->1.0.1", "b": "patch 1.0.0->1.0.1"},
		},
		{
			name: "workspace caret range keeps its meaning",
			kind: workspace.DependencyRuntime, rng: "workspace:^1.0.0", bump: "minor",
			want: map[string]string{"b": "minor 1.0.0->1.1.0"},
		},
		{
			name: "bare workspace caret accepts anything",
			kind: workspace.DependencyRuntime, rng: "workspace:^", bump: "major",
			want: map[string]string{"b": "major 1.0.0->2.0.0"},
		},
		{
			name: "peer in range with out-of-range policy",
			cfg:  Config{OnlyUpdatePeerDependentsWhenOutOfRange: true},
			kind: workspace.DependencyPeer, rng: "^1.0.0", bump: "minor",
			want: map[string]string{"b": "minor 1.0.0->1.1.0"},
		},
		{
			name: "peer out of range with out-of-range policy",
			cfg:  Config{OnlyUpdatePeerDependentsWhenOutOfRange: true},
			kind: workspace.DependencyPeer, rng: "^1.0.0", bump: "major",
			want: map[string]string{"a": "major 1.0.0->2.0.0", "b": "major 1.0.0->2.0.0"},
		},
		{
			name: "peer patch never forces major",
			kind: workspace.DependencyPeer, rng: "1.0.0", bump: "patch",
			want: map[string]string{"a": "patch 1.0.0->1.0.1", "b": "patch 1.0.0->1.0.1"},
		},
		{
			name: "workspace protocol only drops plain ranges",
			cfg:  Config{BumpVersionsWithWorkspaceProtocolOnly: true},
			kind: workspace.DependencyRuntime, rng: "1.0.0", bump: "minor",
			want: map[string]string{"b": "minor 1.0.0->1.1.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkgs := mustPackages(t,
				dependsOn(newPkg("a", "1.0.0"), tt.kind, "b", tt.rng),
				newPkg("b", "1.0.0"),
			)
			plan := assemble(t, []changes.Changeset{changeset("cs1", "b", tt.bump)}, pkgs, tt.cfg)
			assert.Equal(t, tt.want, summary(plan))
		})
	}
}

func TestAssemble_PeerChainPropagates(t *testing.T) {
	pkgs := mustPackages(t,
		dependsOn(newPkg("a", "1.0.0"), workspace.DependencyPeer, "b", "^1.0.0"),
		newPkg("b", "1.0.0"),
		dependsOn(newPkg("c", "1.0.0"), workspace.DependencyPeer, "a", "^1.0.0"),
	)

	plan := assemble(t, []changes.Changeset{changeset("cs1", "b", "minor")}, pkgs, Config{})

	assert.Equal(t, map[string]string{
		"a": "major 1.0.0->2.0.0",
		"b": "minor 1.0.0->1.1.0",
		"c": "major 1.0.0->2.0.0",
	}, summary(plan))
}

func TestAssemble_NoneReleaseEscalatesToMajor(t *testing.T) {
	a := dependsOn(newPkg("a", "1.0.0"), workspace.DependencyDev, "b", "^1.0.0")
	a = dependsOn(a, workspace.DependencyPeer, "e", "^1.0.0")
	pkgs := mustPackages(t, a, newPkg("b", "1.0.0"), newPkg("e", "1.0.0"))
	cs := []changes.Changeset{
		changeset("cs1", "b", "major"),
		changeset("cs2", "e", "minor"),
	}

	plan := assemble(t, cs, pkgs, Config{})

	assert.Equal(t, map[string]string{
		"a": "major 1.0.0->2.0.0",
		"b": "major 1.0.0->2.0.0",
		"e": "minor 1.0.0->1.1.0",
	}, summary(plan))
}

func TestAssemble_MergesChangesets(t *testing.T) {
	pkgs := mustPackages(t, newPkg("a", "1.0.0"), newPkg("b", "0.3.0"))
	cs := []changes.Changeset{
		changeset("cs3", "a", "patch"),
		changeset("cs1", "a", "minor", "b", "none"),
		changeset("cs2", "a", "patch"),
	}

	plan := assemble(t, cs, pkgs, Config{})

	assert.Equal(t, map[string]string{
		"a": "minor 1.0.0->1.1.0",
		"b": "none 0.3.0->0.3.0",
	}, summary(plan))
	a, _ := plan.Release("a")
	assert.Equal(t, []string{"cs1", "cs2", "cs3"}, a.Changesets)
	assert.Len(t, plan.Bumped(), 1)
}

func TestAssemble_Ignore(t *testing.T) {
	pkgs := mustPackages(t,
		dependsOn(newPkg("a", "1.0.0"), workspace.DependencyRuntime, "b", "1.0.0"),
		newPkg("b", "1.0.0"),
		newPkg("c", "1.0.0"),
	)
	cfg := Config{Ignore: []string{"a", "c"}}
	cs := []changes.Changeset{
		changeset("cs1", "b", "minor"),
		changeset("cs2", "c", "major"),
	}

	plan := assemble(t, cs, pkgs, cfg)

	assert.Equal(t, map[string]string{
		"a": "none 1.0.0->1.0.0",
		"b": "minor 1.0.0->1.1.0",
	}, summary(plan))
}

func TestAssemble_Errors(t *testing.T) {
	pkgs := mustPackages(t, newPkg("a", "1.0.0"), newPkg("b", "1.0.0"))

	tests := []struct {
		name     string
		cs       []changes.Changeset
		cfg      Config
		snapshot *SnapshotParams
		sentinel error
		kind     cperrors.Kind
	}{
		{
			name:     "unknown package",
			cs:       []changes.Changeset{changeset("cs1", "ghost", "patch")},
			sentinel: ErrUnknownPackage,
			kind:     cperrors.KindNotFound,
		},
		{
			name:     "mixed changeset",
			cs:       []changes.Changeset{changeset("cs1", "a", "patch", "b", "patch")},
			cfg:      Config{Ignore: []string{"a"}},
			sentinel: ErrMixedChangeset,
			kind:     cperrors.KindValidation,
		},
		{
			name:     "unresolved fixed member",
			cfg:      Config{Fixed: [][]string{{"a", "ghost"}}},
			sentinel: ErrUnresolvedGroupMember,
			kind:     cperrors.KindConfig,
		},
		{
			name:     "unresolved linked member",
			cfg:      Config{Linked: [][]string{{"ghost"}}},
			sentinel: ErrUnresolvedGroupMember,
			kind:     cperrors.KindConfig,
		},
		{
			name:     "template drops the tag",
			cs:       []changes.Changeset{changeset("cs1", "a", "patch")},
			cfg:      Config{Snapshot: SnapshotConfig{PrereleaseTemplate: "{commit}"}},
			snapshot: &SnapshotParams{Tag: "canary", Commit: "abc123"},
			sentinel: ErrSnapshotTemplate,
			kind:     cperrors.KindTemplate,
		},
		{
			name:     "duplicate changeset ids",
			cs:       []changes.Changeset{changeset("cs1", "a", "patch"), changeset("cs1", "b", "patch")},
			sentinel: ErrInvalidChangeset,
			kind:     cperrors.KindValidation,
		},
		{
			name:     "invalid severity",
			cs:       []changes.Changeset{changeset("cs1", "a", "huge")},
			sentinel: ErrInvalidChangeset,
			kind:     cperrors.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Assemble(tt.cs, pkgs, tt.cfg, nil, tt.snapshot, WithClock(fixedClock))
			require.Error(t, err)
			assert.Nil(t, plan)
			assert.True(t, errors.Is(err, tt.sentinel), "error %v should wrap %v", err, tt.sentinel)
			assert.Equal(t, tt.kind, cperrors.GetKind(err))
		})
	}
}

func TestAssemble_MixedChangesetNamesBothSides(t *testing.T) {
	pkgs := mustPackages(t, newPkg("a", "1.0.0"), newPkg("b", "1.0.0"))

	_, err := Assemble([]changes.Changeset{changeset("cs1", "a", "patch", "b", "patch")}, pkgs,
		Config{Ignore: []string{"a"}}, nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cs1")
	assert.Contains(t, err.Error(), "ignored packages (a)")
	assert.Contains(t, err.Error(), "not ignored packages (b)")
}

func TestHighestReleaseType_Empty(t *testing.T) {
	_, err := highestReleaseType(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternalInvariant)
	assert.True(t, cperrors.IsKind(err, cperrors.KindInternal))
}

func TestCurrentHighestVersion(t *testing.T) {
	pkgs := mustPackages(t, newPkg("x", "1.2.0"), newPkg("y", "1.10.0-beta.1"), newPkg("z", "1.9.9"))

	got, err := currentHighestVersion([]string{"z", "x", "y"}, pkgs)
	require.NoError(t, err)
	assert.Equal(t, "1.10.0-beta.1", got)

	names := []string{}
	for _, p := range groupMembers([]string{"z", "x"}, pkgs) {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"z", "x"}, names)
}
