package workspace

import (
	"slices"
	"strings"

	"github.com/relicta-tech/changeplan/internal/domain/version"
)

// GraphOptions controls which manifest entries become graph edges.
type GraphOptions struct {
	// WorkspaceProtocolOnly keeps only dependencies declared with the
	// workspace: protocol.
	WorkspaceProtocolOnly bool
}

// DependentsGraph maps a package name to the sorted names of the workspace
// packages that depend on it. Every known package is a key.
type DependentsGraph map[string][]string

// Dependents returns the dependents of name and whether name is known.
func (g DependentsGraph) Dependents(name string) ([]string, bool) {
	deps, ok := g[name]
	return deps, ok
}

// RangeMismatch records a workspace dependency whose declared range does not
// accept the version the workspace currently holds.
type RangeMismatch struct {
	Dependent  string
	Dependency string
	Kind       DependencyKind
	Range      string
	Version    string
}

// BuildDependentsGraph builds the reverse dependency graph of the workspace.
// Dependencies on packages outside the workspace are dropped. Edges are kept
// even when a range does not match the current version; those entries are
// reported as mismatches.
func BuildDependentsGraph(pkgs *Packages, opts GraphOptions) (DependentsGraph, []RangeMismatch) {
	graph := make(DependentsGraph, pkgs.Len())
	for _, name := range pkgs.Names() {
		graph[name] = []string{}
	}

	var mismatches []RangeMismatch
	for _, pkg := range pkgs.list {
		for _, kind := range DependencyKinds {
			for depName, rng := range pkg.Manifest.Deps(kind) {
				dep, ok := pkgs.Get(depName)
				if !ok || depName == pkg.Name {
					continue
				}
				if opts.WorkspaceProtocolOnly && !IsWorkspaceRange(rng) {
					continue
				}
				if !slices.Contains(graph[depName], pkg.Name) {
					graph[depName] = append(graph[depName], pkg.Name)
				}
				if !rangeAccepts(rng, dep.Version) {
					mismatches = append(mismatches, RangeMismatch{
						Dependent:  pkg.Name,
						Dependency: depName,
						Kind:       kind,
						Range:      rng,
						Version:    dep.Version,
					})
				}
			}
		}
	}

	for name := range graph {
		slices.Sort(graph[name])
	}
	slices.SortFunc(mismatches, func(a, b RangeMismatch) int {
		if c := strings.Compare(a.Dependent, b.Dependent); c != 0 {
			return c
		}
		if c := strings.Compare(a.Dependency, b.Dependency); c != 0 {
			return c
		}
		return int(a.Kind) - int(b.Kind)
	})

	return graph, mismatches
}

// rangeAccepts reports whether a manifest range admits the workspace version.
// Bare workspace ranges and other protocols (npm:, file:, link:) always do.
func rangeAccepts(rng, v string) bool {
	if IsWorkspaceRange(rng) {
		rng = strings.TrimPrefix(rng, WorkspaceProtocol)
		switch rng {
		case "*", "^", "~":
			return true
		}
	}
	if strings.Contains(rng, ":") {
		return true
	}
	return version.Satisfies(v, rng)
}
