// Package planning provides the application use cases behind the changeplan
// commands: computing a release plan, managing pre mode and adding
// changesets.
package planning

import (
	"context"

	"github.com/relicta-tech/changeplan/internal/config"
	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
)

// ChangesetSource reads the changesets of a workspace.
type ChangesetSource interface {
	// Dir returns the directory the changesets live in.
	Dir() string
	ReadAll(ctx context.Context) ([]changes.Changeset, error)
	// ReadSince loads only the changesets with the given ids.
	ReadSince(ctx context.Context, ids []string) ([]changes.Changeset, error)
}

// ChangesetSink stores new changesets.
type ChangesetSink interface {
	// Write stores cs and returns the id it was written under.
	Write(cs changes.Changeset) (string, error)
}

// PreStateStore persists the prerelease state.
type PreStateStore interface {
	// Load returns nil when no state has been stored.
	Load(ctx context.Context) (*prerelease.State, error)
	Save(ctx context.Context, state *prerelease.State) error
	Delete(ctx context.Context) error
}

// PackageLoader discovers the packages of the workspace.
type PackageLoader interface {
	Load(ctx context.Context, root string, opts workspace.DiscoverOptions) (*workspace.Packages, error)
}

// GitRepository is the subset of git used by planning.
type GitRepository interface {
	// HeadCommit returns the abbreviated hash of HEAD.
	HeadCommit(ctx context.Context) (string, error)
	// ChangedFilesSince lists files under dir changed since ref diverged
	// from HEAD, relative to the repository root.
	ChangedFilesSince(ctx context.Context, ref, dir string) ([]string, error)
}

// Workspace is the project being planned.
type Workspace struct {
	Root   string
	Config *config.Config
}

func (w Workspace) discoverOptions() workspace.DiscoverOptions {
	return workspace.DiscoverOptions{
		Paths:        w.Config.Workspace.PackagePaths,
		ExcludePaths: w.Config.Workspace.ExcludePaths,
		IncludeRoot:  w.Config.Workspace.IncludeRoot,
	}
}
