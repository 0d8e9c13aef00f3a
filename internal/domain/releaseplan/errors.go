package releaseplan

import "errors"

// Domain errors for release planning. They are returned wrapped in the
// structured error type so both errors.Is and the error kind can be checked.
var (
	// ErrUnknownPackage indicates a changeset names a package that is not
	// part of the workspace.
	ErrUnknownPackage = errors.New("unknown package")

	// ErrMixedChangeset indicates a changeset releases both ignored and
	// non-ignored packages.
	ErrMixedChangeset = errors.New("mixed changeset")

	// ErrUnresolvedGroupMember indicates a fixed or linked group names a
	// package that is not part of the workspace.
	ErrUnresolvedGroupMember = errors.New("unresolved group member")

	// ErrSnapshotTemplate indicates the snapshot template could not be
	// rendered.
	ErrSnapshotTemplate = errors.New("snapshot template error")

	// ErrInternalInvariant indicates the planner reached a state its inputs
	// should have made impossible.
	ErrInternalInvariant = errors.New("internal invariant violated")

	// ErrInvalidChangeset indicates a malformed changeset.
	ErrInvalidChangeset = errors.New("invalid changeset")
)
