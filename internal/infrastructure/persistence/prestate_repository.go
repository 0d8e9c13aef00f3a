// Package persistence stores the prerelease state file.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
	"github.com/relicta-tech/changeplan/internal/fileutil"
)

// DefaultPreStateFile is the pre state location relative to the workspace root.
const DefaultPreStateFile = ".changeset/pre.json"

// checkContext returns the context error once it is done.
func checkContext(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return cperrors.Wrap(ctx.Err(), cperrors.KindCanceled, op, "operation canceled")
	default:
		return nil
	}
}

// PreStateRepository reads and writes the pre state JSON file.
type PreStateRepository struct {
	path string
	mu   sync.RWMutex
}

// NewPreStateRepository returns a repository for the file at path.
func NewPreStateRepository(path string) *PreStateRepository {
	return &PreStateRepository{path: path}
}

// Path returns the state file location.
func (r *PreStateRepository) Path() string {
	return r.path
}

// Load returns the stored state, or nil when no state file exists.
func (r *PreStateRepository) Load(ctx context.Context) (*prerelease.State, error) {
	const op = "persistence.LoadPreState"
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := fileutil.ReadInput(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, cperrors.IOWrap(err, op, "failed to read pre state").WithDetail("file", r.path)
	}

	var state prerelease.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, cperrors.StateWrap(err, op, "pre state file is not valid JSON").WithDetail("file", r.path)
	}
	if err := state.Validate(); err != nil {
		return nil, cperrors.StateWrap(err, op, "invalid pre state").WithDetail("file", r.path)
	}
	return state.Clone(), nil
}

// Save writes state atomically, creating the parent directory if needed.
func (r *PreStateRepository) Save(ctx context.Context, state *prerelease.State) error {
	const op = "persistence.SavePreState"
	if err := checkContext(ctx, op); err != nil {
		return err
	}
	if state == nil {
		return cperrors.Internal(op, "nil pre state")
	}
	if err := state.Validate(); err != nil {
		return cperrors.StateWrap(err, op, "refusing to save invalid pre state")
	}

	data, err := json.MarshalIndent(state.Clone(), "", "  ")
	if err != nil {
		return cperrors.Wrap(err, cperrors.KindInternal, op, "failed to encode pre state")
	}
	data = append(data, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return cperrors.IOWrap(err, op, "failed to create state directory")
	}
	if err := fileutil.AtomicWriteFile(r.path, data, 0o644); err != nil {
		return cperrors.IOWrap(err, op, "failed to write pre state").WithDetail("file", r.path)
	}
	return nil
}

// Delete removes the state file. A missing file is not an error.
func (r *PreStateRepository) Delete(ctx context.Context) error {
	const op = "persistence.DeletePreState"
	if err := checkContext(ctx, op); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cperrors.IOWrap(err, op, "failed to delete pre state").WithDetail("file", r.path)
	}
	return nil
}
