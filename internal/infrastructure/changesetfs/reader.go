package changesetfs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
	"github.com/relicta-tech/changeplan/internal/fileutil"
)

// DefaultDir is the changeset directory relative to the workspace root.
const DefaultDir = ".changeset"

// maxConcurrentReads bounds the number of changeset files read at once.
const maxConcurrentReads = 8

// Reader loads changesets from a directory.
type Reader struct {
	dir string
}

// NewReader returns a reader for the changeset directory dir.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Dir returns the changeset directory.
func (r *Reader) Dir() string {
	return r.dir
}

// ReadAll loads every changeset in the directory, ordered by id.
func (r *Reader) ReadAll(ctx context.Context) ([]changes.Changeset, error) {
	return r.read(ctx, nil)
}

// ReadSince loads only the changesets whose id is in ids.
func (r *Reader) ReadSince(ctx context.Context, ids []string) ([]changes.Changeset, error) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	return r.read(ctx, keep)
}

func (r *Reader) read(ctx context.Context, keep map[string]bool) ([]changes.Changeset, error) {
	const op = "changesetfs.Read"

	names, err := r.list()
	if err != nil {
		return nil, err
	}
	if keep != nil {
		names = slices.DeleteFunc(names, func(n string) bool {
			return !keep[IDFromFileName(n)]
		})
	}

	out := make([]changes.Changeset, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cs, err := r.readFile(name)
			if err != nil {
				return err
			}
			out[i] = cs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, cperrors.Wrap(err, cperrors.KindCanceled, op, "reading changesets canceled")
		}
		return nil, err
	}
	return out, nil
}

// list returns the changeset file names in the directory, sorted.
func (r *Reader) list() ([]string, error) {
	const op = "changesetfs.List"

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cperrors.NotFoundWrap(err, op, "there is no .changeset directory in this project").
				WithDetail("dir", r.dir)
		}
		return nil, cperrors.IOWrap(err, op, "failed to list changeset directory")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsChangesetFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (r *Reader) readFile(name string) (changes.Changeset, error) {
	const op = "changesetfs.ReadFile"

	path := filepath.Join(r.dir, name)
	data, err := fileutil.ReadInput(path)
	if err != nil {
		return changes.Changeset{}, cperrors.IOWrap(err, op, "failed to read changeset").
			WithDetail("file", path)
	}

	cs, err := Parse(data)
	if err != nil {
		return changes.Changeset{}, cperrors.ValidationWrap(err, op, "could not parse changeset").
			WithDetail("file", path)
	}
	cs.ID = IDFromFileName(name)
	return cs, nil
}

// IsChangesetFile reports whether a file name in the changeset directory
// holds a changeset. Dotfiles and README.md are skipped.
func IsChangesetFile(name string) bool {
	return !strings.HasPrefix(name, ".") &&
		strings.HasSuffix(name, ".md") &&
		name != "README.md"
}

// IDFromFileName returns the changeset id stored in a file name.
func IDFromFileName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), ".md")
}
