package planning

import (
	"context"
	"errors"
	"log/slog"

	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// PreModeUseCase enters and exits prerelease mode.
type PreModeUseCase struct {
	ws       Workspace
	packages PackageLoader
	store    PreStateStore
	logger   *slog.Logger
}

// NewPreModeUseCase creates a new PreModeUseCase.
func NewPreModeUseCase(ws Workspace, packages PackageLoader, store PreStateStore) *PreModeUseCase {
	return &PreModeUseCase{
		ws:       ws,
		packages: packages,
		store:    store,
		logger:   slog.Default().With("usecase", "pre_mode"),
	}
}

// Enter switches the workspace into pre mode with tag. The current version
// of every package is recorded as its initial version unless a previous pre
// state already holds a baseline.
func (uc *PreModeUseCase) Enter(ctx context.Context, tag string) (*prerelease.State, error) {
	const op = "planning.EnterPre"

	current, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	var initial map[string]string
	if current == nil {
		pkgs, err := uc.packages.Load(ctx, uc.ws.Root, uc.ws.discoverOptions())
		if err != nil {
			return nil, err
		}
		initial = make(map[string]string, pkgs.Len())
		for _, p := range pkgs.All() {
			initial[p.Name] = p.Version
		}
	}

	next, err := prerelease.Enter(current, tag, initial)
	if err != nil {
		return nil, preModeError(err, op)
	}
	if err := uc.store.Save(ctx, next); err != nil {
		return nil, err
	}

	uc.logger.Info("entered pre mode", "tag", next.Tag, "packages", len(next.InitialVersions))
	return next, nil
}

// Exit marks pre mode as exiting. The next plan releases stable versions.
func (uc *PreModeUseCase) Exit(ctx context.Context) (*prerelease.State, error) {
	const op = "planning.ExitPre"

	current, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := prerelease.Exit(current)
	if err != nil {
		return nil, preModeError(err, op)
	}
	if err := uc.store.Save(ctx, next); err != nil {
		return nil, err
	}

	uc.logger.Info("exiting pre mode", "tag", next.Tag)
	return next, nil
}

// Record persists the pre state that follows applying plan state. A
// finished exit removes the state file. It returns the stored state, nil
// once pre mode is over.
func (uc *PreModeUseCase) Record(ctx context.Context, planned *prerelease.State) (*prerelease.State, error) {
	const op = "planning.RecordPre"

	next, err := prerelease.AfterVersion(planned)
	if err != nil {
		return nil, preModeError(err, op)
	}
	if next == nil {
		if err := uc.store.Delete(ctx); err != nil {
			return nil, err
		}
		uc.logger.Info("pre mode finished")
		return nil, nil
	}
	if err := uc.store.Save(ctx, next); err != nil {
		return nil, err
	}
	uc.logger.Debug("pre state recorded", "changesets", len(next.Changesets))
	return next, nil
}

func preModeError(err error, op string) error {
	switch {
	case errors.Is(err, prerelease.ErrAlreadyInPre):
		return cperrors.ConflictWrap(err, op, "`changeplan pre enter` cannot be run when in pre mode")
	case errors.Is(err, prerelease.ErrNotInPre):
		return cperrors.StateWrap(err, op, "`changeplan pre exit` can only be run when in pre mode")
	case errors.Is(err, prerelease.ErrInvalidState):
		return cperrors.ValidationWrap(err, op, "invalid pre mode request")
	default:
		return cperrors.StateWrap(err, op, "pre mode transition failed")
	}
}
