package changes

import "errors"

// Domain errors for changes operations.
var (
	// ErrInvalidReleaseType indicates an unrecognized release type.
	ErrInvalidReleaseType = errors.New("invalid release type")

	// ErrEmptyChangesetID indicates a changeset without an id.
	ErrEmptyChangesetID = errors.New("changeset id is empty")

	// ErrDuplicateRelease indicates a changeset naming the same package twice.
	ErrDuplicateRelease = errors.New("package listed more than once in changeset")

	// ErrDuplicateChangesetID indicates two changesets sharing an id.
	ErrDuplicateChangesetID = errors.New("duplicate changeset id")
)
