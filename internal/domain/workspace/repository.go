package workspace

import "context"

// Discoverer locates the packages of a workspace on disk. Implementations
// live in the infrastructure layer, one per manifest format family.
type Discoverer interface {
	Discover(ctx context.Context, root string, opts DiscoverOptions) ([]Package, error)
}

// DiscoverOptions selects the directories searched for package manifests.
type DiscoverOptions struct {
	// Paths are globs relative to the workspace root, such as "packages/*".
	Paths []string
	// ExcludePaths are globs of directories to skip even when Paths match.
	ExcludePaths []string
	// IncludeRoot also treats the workspace root as a package.
	IncludeRoot bool
}
