package changesetfs

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
	"github.com/relicta-tech/changeplan/internal/fileutil"
)

const idLength = 12

// Writer creates changeset files.
type Writer struct {
	dir   string
	newID func() string
}

// NewWriter returns a writer for the changeset directory dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, newID: NewID}
}

// NewID returns a random changeset id: a hyphen-free uuid prefix.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}

// Write stores cs and returns the id it was written under. An empty id is
// replaced by a generated one. Existing files are never overwritten.
func (w *Writer) Write(cs changes.Changeset) (string, error) {
	const op = "changesetfs.Write"

	if cs.ID == "" {
		cs.ID = w.newID()
	}
	if strings.ContainsAny(cs.ID, `/\`) || strings.HasPrefix(cs.ID, ".") {
		return "", cperrors.Validation(op, "changeset id must be a plain file name").
			WithDetail("id", cs.ID)
	}
	if err := cs.Validate(); err != nil {
		return "", cperrors.ValidationWrap(err, op, "invalid changeset")
	}

	data, err := Format(cs)
	if err != nil {
		return "", cperrors.Wrap(err, cperrors.KindInternal, op, "failed to encode changeset")
	}

	path := filepath.Join(w.dir, cs.ID+".md")
	if err := fileutil.WriteNewFile(path, data, 0o644); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", cperrors.ConflictWrap(err, op, "changeset already exists").WithDetail("file", path)
		}
		return "", cperrors.IOWrap(err, op, "failed to write changeset").WithDetail("file", path)
	}
	return cs.ID, nil
}
