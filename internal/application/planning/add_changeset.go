package planning

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// AddChangesetInput represents the input for the AddChangeset use case.
type AddChangesetInput struct {
	Releases []changes.Release
	Summary  string
	// Empty allows a changeset that releases nothing.
	Empty bool
}

// Validate validates the AddChangesetInput.
func (i *AddChangesetInput) Validate() error {
	if i.Empty && len(i.Releases) > 0 {
		return fmt.Errorf("an empty changeset cannot release packages")
	}
	if !i.Empty && len(i.Releases) == 0 {
		return fmt.Errorf("no packages selected; pass --empty to add an empty changeset")
	}
	if !i.Empty && strings.TrimSpace(i.Summary) == "" {
		return fmt.Errorf("summary is required")
	}
	for _, r := range i.Releases {
		if !r.Type.IsValid() {
			return fmt.Errorf("%w: %q for %s", changes.ErrInvalidReleaseType, r.Type, r.Name)
		}
	}
	return nil
}

// AddChangesetOutput represents the output of the AddChangeset use case.
type AddChangesetOutput struct {
	ID        string
	Changeset changes.Changeset
}

// AddChangesetUseCase writes a new changeset for workspace packages.
type AddChangesetUseCase struct {
	ws       Workspace
	packages PackageLoader
	sink     ChangesetSink
	logger   *slog.Logger
}

// NewAddChangesetUseCase creates a new AddChangesetUseCase.
func NewAddChangesetUseCase(ws Workspace, packages PackageLoader, sink ChangesetSink) *AddChangesetUseCase {
	return &AddChangesetUseCase{
		ws:       ws,
		packages: packages,
		sink:     sink,
		logger:   slog.Default().With("usecase", "add_changeset"),
	}
}

// Execute executes the add changeset use case.
func (uc *AddChangesetUseCase) Execute(ctx context.Context, input AddChangesetInput) (*AddChangesetOutput, error) {
	const op = "planning.AddChangeset"

	if err := input.Validate(); err != nil {
		return nil, cperrors.ValidationWrap(err, op, "invalid input")
	}

	if len(input.Releases) > 0 {
		pkgs, err := uc.packages.Load(ctx, uc.ws.Root, uc.ws.discoverOptions())
		if err != nil {
			return nil, err
		}
		for _, r := range input.Releases {
			if err := uc.checkListable(pkgs, r.Name); err != nil {
				return nil, cperrors.ValidationWrap(err, op, "package cannot be released").
					WithDetail("package", r.Name)
			}
		}
	}

	cs := changes.Changeset{
		Summary:  strings.TrimSpace(input.Summary),
		Releases: slices.Clone(input.Releases),
	}
	slices.SortFunc(cs.Releases, func(a, b changes.Release) int {
		return strings.Compare(a.Name, b.Name)
	})

	id, err := uc.sink.Write(cs)
	if err != nil {
		return nil, err
	}
	cs.ID = id

	uc.logger.Info("changeset added", "id", id, "releases", len(cs.Releases))
	return &AddChangesetOutput{ID: id, Changeset: cs}, nil
}

// checkListable rejects unknown and ignored packages, and private packages
// unless private versioning is enabled.
func (uc *AddChangesetUseCase) checkListable(pkgs *workspace.Packages, name string) error {
	p, ok := pkgs.Get(name)
	switch {
	case !ok:
		return fmt.Errorf("unknown package %q", name)
	case slices.Contains(uc.ws.Config.Ignore, name):
		return fmt.Errorf("package %q is ignored", name)
	case p.Private && !uc.ws.Config.PrivatePackages.Version:
		return fmt.Errorf("package %q is private", name)
	}
	return nil
}
