package releaseplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)

func fixedClock() time.Time { return fixedNow }

func fixedNowZone() *time.Location { return time.FixedZone("UTC+9", 9*60*60) }

func newPkg(name, v string) workspace.Package {
	return workspace.Package{Name: name, Version: v}
}

func dependsOn(p workspace.Package, kind workspace.DependencyKind, dep, rng string) workspace.Package {
	p.Manifest.SetDep(kind, dep, rng)
	return p
}

func mustPackages(t *testing.T, pkgs ...workspace.Package) *workspace.Packages {
	t.Helper()
	ps, err := workspace.NewPackages(pkgs)
	require.NoError(t, err)
	return ps
}

func changeset(id string, releases ...string) changes.Changeset {
	cs := changes.Changeset{ID: id, Summary: "summary of " + id}
	for i := 0; i+1 < len(releases); i += 2 {
		cs.Releases = append(cs.Releases, changes.Release{
			Name: releases[i],
			Type: changes.ReleaseType(releases[i+1]),
		})
	}
	return cs
}

func assemble(t *testing.T, cs []changes.Changeset, pkgs *workspace.Packages, cfg Config) *Plan {
	t.Helper()
	plan, err := Assemble(cs, pkgs, cfg, nil, nil, WithClock(fixedClock))
	require.NoError(t, err)
	return plan
}

// summary maps package name to "type oldVersion->newVersion".
func summary(p *Plan) map[string]string {
	out := make(map[string]string, len(p.Releases))
	for _, r := range p.Releases {
		out[r.Name] = string(r.Type) + " " + r.OldVersion + "->" + r.NewVersion
	}
	return out
}
