package workspace

import "errors"

// Domain errors for workspace operations.
var (
	// ErrInvalidPackage indicates a package without a name or a valid version.
	ErrInvalidPackage = errors.New("invalid package")

	// ErrDuplicatePackage indicates two packages sharing a name.
	ErrDuplicatePackage = errors.New("duplicate package name")
)
