// Package git reads the repository state planning depends on: the HEAD
// commit for snapshot versions and the files changed since a reference.
package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// DefaultLocalTimeout bounds local git operations.
const DefaultLocalTimeout = 30 * time.Second

// ShortHashLength is the length of abbreviated commit hashes.
const ShortHashLength = 7

// withLocalTimeout applies a timeout for local git operations unless the
// context already has a shorter deadline.
func withLocalTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) < DefaultLocalTimeout {
			return ctx, func() {}
		}
	}
	return context.WithTimeout(ctx, DefaultLocalTimeout)
}

// Repository is a go-git backed view of the workspace repository.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path. Parent directories are
// searched for the .git directory.
func Open(path string) (*Repository, error) {
	const op = "git.Open"

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, cperrors.GitWrap(err, op, "failed to get absolute path")
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, cperrors.GitWrap(err, op, "failed to open repository")
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, cperrors.GitWrap(err, op, "failed to get worktree")
	}

	return &Repository{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the absolute path of the worktree root.
func (r *Repository) Root() string {
	return r.root
}

// HeadCommit returns the abbreviated hash of HEAD.
func (r *Repository) HeadCommit(ctx context.Context) (string, error) {
	const op = "git.HeadCommit"

	if err := ctx.Err(); err != nil {
		return "", cperrors.Wrap(err, cperrors.KindCanceled, op, "operation canceled")
	}

	head, err := r.repo.Head()
	if err != nil {
		return "", cperrors.GitWrap(err, op, "failed to get HEAD")
	}
	return head.Hash().String()[:ShortHashLength], nil
}

// ChangedFilesSince lists files under dir that were added or modified since
// the point where HEAD diverged from ref, including uncommitted and
// untracked files. Paths are slash separated and relative to the
// repository root. Deleted files are not reported.
func (r *Repository) ChangedFilesSince(ctx context.Context, ref, dir string) ([]string, error) {
	const op = "git.ChangedFilesSince"

	ctx, cancel := withLocalTimeout(ctx)
	defer cancel()

	prefix, err := r.relativePrefix(dir)
	if err != nil {
		return nil, cperrors.GitWrap(err, op, "directory is outside the repository").
			WithDetail("dir", dir)
	}

	base, err := r.divergencePoint(ref)
	if err != nil {
		return nil, cperrors.GitWrap(err, op, fmt.Sprintf("failed to resolve reference %s", ref))
	}

	changed := make(map[string]bool)
	if err := r.committedChanges(ctx, base, prefix, changed); err != nil {
		if ctx.Err() != nil {
			return nil, cperrors.Wrap(ctx.Err(), cperrors.KindCanceled, op, "operation canceled")
		}
		return nil, cperrors.GitWrap(err, op, "failed to diff against HEAD")
	}
	if err := r.worktreeChanges(prefix, changed); err != nil {
		return nil, cperrors.GitWrap(err, op, "failed to read worktree status")
	}

	files := make([]string, 0, len(changed))
	for f := range changed {
		files = append(files, f)
	}
	slices.Sort(files)
	return files, nil
}

// divergencePoint returns the merge base of ref and HEAD, or ref itself
// when the histories share no base.
func (r *Repository) divergencePoint(ref string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, err
	}
	refCommit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, err
	}
	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}

	bases, err := refCommit.MergeBase(headCommit)
	if err != nil {
		return nil, err
	}
	if len(bases) == 0 {
		return refCommit, nil
	}
	return bases[0], nil
}

func (r *Repository) committedChanges(ctx context.Context, base *object.Commit, prefix string, out map[string]bool) error {
	head, err := r.repo.Head()
	if err != nil {
		return err
	}
	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return err
	}

	fromTree, err := base.Tree()
	if err != nil {
		return err
	}
	toTree, err := headCommit.Tree()
	if err != nil {
		return err
	}

	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return err
	}

	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return err
		}
		if action == merkletrie.Delete {
			continue
		}
		if name := change.To.Name; underPrefix(name, prefix) {
			out[name] = true
		}
	}
	return nil
}

func (r *Repository) worktreeChanges(prefix string, out map[string]bool) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	status, err := wt.Status()
	if err != nil {
		return err
	}

	for name, st := range status {
		if !underPrefix(name, prefix) {
			continue
		}
		switch {
		case st.Worktree == git.Deleted, st.Staging == git.Deleted:
			delete(out, name)
		case st.Worktree != git.Unmodified || st.Staging != git.Unmodified:
			out[name] = true
		}
	}
	return nil
}

func (r *Repository) relativePrefix(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.root, dir)
	}
	rel, err := filepath.Rel(r.root, dir)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("path escapes repository root")
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel) + "/", nil
}

func underPrefix(name, prefix string) bool {
	return prefix == "" || strings.HasPrefix(name, prefix)
}
