package planning

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relicta-tech/changeplan/internal/config"
	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
)

type fakePackages struct {
	pkgs  []workspace.Package
	err   error
	calls int
	opts  workspace.DiscoverOptions
}

func (f *fakePackages) Load(_ context.Context, _ string, opts workspace.DiscoverOptions) (*workspace.Packages, error) {
	f.calls++
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return workspace.NewPackages(f.pkgs)
}

type fakeChangesets struct {
	all       []changes.Changeset
	sinceIDs  []string
	readSince bool
}

func (f *fakeChangesets) Dir() string { return ".changeset" }

func (f *fakeChangesets) ReadAll(context.Context) ([]changes.Changeset, error) {
	return f.all, nil
}

func (f *fakeChangesets) ReadSince(_ context.Context, ids []string) ([]changes.Changeset, error) {
	f.readSince = true
	f.sinceIDs = ids
	var out []changes.Changeset
	for _, cs := range f.all {
		if slices.Contains(ids, cs.ID) {
			out = append(out, cs)
		}
	}
	return out, nil
}

type fakeSink struct {
	written []changes.Changeset
	err     error
}

func (f *fakeSink) Write(cs changes.Changeset) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if cs.ID == "" {
		cs.ID = "generated"
	}
	f.written = append(f.written, cs)
	return cs.ID, nil
}

type fakePreStore struct {
	state   *prerelease.State
	saves   int
	deleted bool
}

func (f *fakePreStore) Load(context.Context) (*prerelease.State, error) {
	if f.state == nil {
		return nil, nil
	}
	return f.state.Clone(), nil
}

func (f *fakePreStore) Save(_ context.Context, state *prerelease.State) error {
	f.saves++
	f.state = state.Clone()
	return nil
}

func (f *fakePreStore) Delete(context.Context) error {
	f.deleted = true
	f.state = nil
	return nil
}

type fakeGit struct {
	head    string
	changed []string
	ref     string
	dir     string
}

func (f *fakeGit) HeadCommit(context.Context) (string, error) {
	return f.head, nil
}

func (f *fakeGit) ChangedFilesSince(_ context.Context, ref, dir string) ([]string, error) {
	f.ref = ref
	f.dir = dir
	return f.changed, nil
}

func newPkg(name, v string) workspace.Package {
	return workspace.Package{Name: name, Version: v, Dir: "packages/" + name}
}

func testWorkspace(t *testing.T, mutate func(*config.Config)) Workspace {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, config.Validate(cfg))
	return Workspace{Root: t.TempDir(), Config: cfg}
}

func changeset(id, summary string, releases ...changes.Release) changes.Changeset {
	return changes.Changeset{ID: id, Summary: summary, Releases: releases}
}

func release(name string, typ changes.ReleaseType) changes.Release {
	return changes.Release{Name: name, Type: typ}
}
