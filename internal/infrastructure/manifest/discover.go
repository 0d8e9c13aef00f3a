// Package manifest discovers workspace packages from package.json and
// Cargo.toml manifests.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
	"github.com/relicta-tech/changeplan/internal/fileutil"
)

// Ensure Discoverer implements workspace.Discoverer.
var _ workspace.Discoverer = (*Discoverer)(nil)

const maxConcurrentReads = 8

// Discoverer finds packages by globbing directories under the workspace root.
type Discoverer struct {
	logger *slog.Logger
}

// NewDiscoverer creates a discoverer. A nil logger discards skip notices.
func NewDiscoverer(logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Discoverer{logger: logger}
}

// Discover returns the packages found under root, ordered by name.
// Directories without a manifest are ignored. Manifests without a name or
// version are skipped with a log notice. Two packages with the same name
// are an error.
func (d *Discoverer) Discover(ctx context.Context, root string, opts workspace.DiscoverOptions) ([]workspace.Package, error) {
	const op = "manifest.Discover"

	dirs, err := candidateDirs(root, opts)
	if err != nil {
		return nil, cperrors.ValidationWrap(err, op, "invalid package path pattern")
	}

	found := make([]*workspace.Package, len(dirs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pkg, err := readPackage(root, dir)
			if err != nil {
				return err
			}
			found[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, cperrors.Wrap(err, cperrors.KindCanceled, op, "discovery canceled")
		}
		return nil, err
	}

	pkgs := make([]workspace.Package, 0, len(found))
	seen := make(map[string]string, len(found))
	for _, p := range found {
		if p == nil {
			continue
		}
		if p.Name == "" || p.Version == "" {
			d.logger.Debug("skipping package without name or version",
				"dir", p.Dir, "name", p.Name)
			continue
		}
		if prev, ok := seen[p.Name]; ok {
			return nil, cperrors.ValidationWrap(
				fmt.Errorf("%w: %s", workspace.ErrDuplicatePackage, p.Name),
				op, "package name used twice").
				WithDetails(map[string]any{"first": prev, "second": p.Dir})
		}
		seen[p.Name] = p.Dir
		pkgs = append(pkgs, *p)
	}

	slices.SortFunc(pkgs, func(a, b workspace.Package) int {
		return strings.Compare(a.Name, b.Name)
	})
	return pkgs, nil
}

// Load discovers the packages under root and indexes them.
func (d *Discoverer) Load(ctx context.Context, root string, opts workspace.DiscoverOptions) (*workspace.Packages, error) {
	list, err := d.Discover(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	pkgs, err := workspace.NewPackages(list)
	if err != nil {
		return nil, cperrors.ValidationWrap(err, "manifest.Load", "invalid workspace package")
	}
	return pkgs, nil
}

// candidateDirs expands the package globs into a sorted, de-duplicated
// list of directories relative to root.
func candidateDirs(root string, opts workspace.DiscoverOptions) ([]string, error) {
	set := make(map[string]bool)
	if opts.IncludeRoot {
		set["."] = true
	}

	for _, pattern := range opts.Paths {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(root, m)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			excluded, err := isExcluded(rel, opts.ExcludePaths)
			if err != nil {
				return nil, err
			}
			if !excluded {
				set[rel] = true
			}
		}
	}

	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs, nil
}

func isExcluded(rel string, patterns []string) (bool, error) {
	for _, p := range patterns {
		ok, err := filepath.Match(p, rel)
		if err != nil {
			return false, fmt.Errorf("%s: %w", p, err)
		}
		if ok || strings.HasPrefix(rel, strings.TrimSuffix(p, "/")+"/") {
			return true, nil
		}
	}
	return false, nil
}

// readPackage reads the manifest in dir. package.json wins over Cargo.toml
// when both exist. A directory without a manifest yields nil.
func readPackage(root, dir string) (*workspace.Package, error) {
	const op = "manifest.readPackage"

	parsers := []struct {
		file  string
		parse func([]byte) (workspace.Package, error)
	}{
		{NPMManifestFile, parseNPM},
		{CargoManifestFile, parseCargo},
	}

	for _, p := range parsers {
		path := filepath.Join(root, filepath.FromSlash(dir), p.file)
		data, err := fileutil.ReadInput(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, cperrors.IOWrap(err, op, "failed to read manifest").WithDetail("file", path)
		}
		pkg, err := p.parse(data)
		if err != nil {
			return nil, cperrors.ValidationWrap(err, op, "invalid manifest").WithDetail("file", path)
		}
		pkg.Dir = dir
		return &pkg, nil
	}
	return nil, nil
}
