// Package workspace provides the domain model for the packages of a
// multi-package workspace and the dependency graph between them.
package workspace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/relicta-tech/changeplan/internal/domain/version"
)

// DependencyKind identifies which dependency list of a manifest an entry lives in.
type DependencyKind int

const (
	// DependencyRuntime is a regular runtime dependency.
	DependencyRuntime DependencyKind = iota
	// DependencyDev is a development-only dependency.
	DependencyDev
	// DependencyPeer is a peer dependency the consumer must provide.
	DependencyPeer
	// DependencyOptional is a dependency that may fail to install.
	DependencyOptional
)

// DependencyKinds lists every kind in manifest order.
var DependencyKinds = []DependencyKind{
	DependencyRuntime,
	DependencyDev,
	DependencyPeer,
	DependencyOptional,
}

// String returns the manifest field name for the kind.
func (k DependencyKind) String() string {
	switch k {
	case DependencyRuntime:
		return "dependencies"
	case DependencyDev:
		return "devDependencies"
	case DependencyPeer:
		return "peerDependencies"
	case DependencyOptional:
		return "optionalDependencies"
	default:
		return "unknown"
	}
}

// PackageType identifies the ecosystem a package manifest comes from.
type PackageType string

const (
	PackageTypeNPM   PackageType = "npm"
	PackageTypeCargo PackageType = "cargo"
)

// WorkspaceProtocol prefixes ranges that must resolve inside the workspace.
const WorkspaceProtocol = "workspace:"

// IsWorkspaceRange reports whether a range uses the workspace protocol.
func IsWorkspaceRange(r string) bool {
	return strings.HasPrefix(r, WorkspaceProtocol)
}

// Manifest holds the dependency lists of a package, each mapping a
// dependency name to its version range.
type Manifest struct {
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
}

// Deps returns the dependency map for a kind. The result may be nil.
func (m Manifest) Deps(kind DependencyKind) map[string]string {
	switch kind {
	case DependencyRuntime:
		return m.Dependencies
	case DependencyDev:
		return m.DevDependencies
	case DependencyPeer:
		return m.PeerDependencies
	case DependencyOptional:
		return m.OptionalDependencies
	default:
		return nil
	}
}

// SetDep records a dependency range under the given kind.
func (m *Manifest) SetDep(kind DependencyKind, name, rng string) {
	target := m.depsPtr(kind)
	if target == nil {
		return
	}
	if *target == nil {
		*target = make(map[string]string)
	}
	(*target)[name] = rng
}

func (m *Manifest) depsPtr(kind DependencyKind) *map[string]string {
	switch kind {
	case DependencyRuntime:
		return &m.Dependencies
	case DependencyDev:
		return &m.DevDependencies
	case DependencyPeer:
		return &m.PeerDependencies
	case DependencyOptional:
		return &m.OptionalDependencies
	default:
		return nil
	}
}

// DependencyRange is one appearance of a dependency in a manifest.
type DependencyRange struct {
	Kind  DependencyKind
	Range string
}

// RangesFor returns every entry the manifest has for dep, in manifest order.
// A package can depend on the same package under several kinds.
func (m Manifest) RangesFor(dep string) []DependencyRange {
	var out []DependencyRange
	for _, kind := range DependencyKinds {
		if r, ok := m.Deps(kind)[dep]; ok && r != "" {
			out = append(out, DependencyRange{Kind: kind, Range: r})
		}
	}
	return out
}

// Package is a member of the workspace.
type Package struct {
	Name     string      `json:"name"`
	Version  string      `json:"version"`
	Dir      string      `json:"dir,omitempty"`
	Type     PackageType `json:"type,omitempty"`
	Private  bool        `json:"private,omitempty"`
	Manifest Manifest    `json:"manifest"`
}

// Validate checks the package has a name and a semantic version.
func (p Package) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: missing name (dir %q)", ErrInvalidPackage, p.Dir)
	}
	if !version.IsValid(p.Version) {
		return fmt.Errorf("%w: %s has version %q", ErrInvalidPackage, p.Name, p.Version)
	}
	return nil
}

// Packages is an immutable, name-indexed set of workspace packages.
type Packages struct {
	list   []Package
	byName map[string]int
}

// NewPackages validates pkgs and indexes them by name. The resulting set is
// ordered by package name.
func NewPackages(pkgs []Package) (*Packages, error) {
	list := slices.Clone(pkgs)
	slices.SortStableFunc(list, func(a, b Package) int {
		return strings.Compare(a.Name, b.Name)
	})

	byName := make(map[string]int, len(list))
	for i, p := range list {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := byName[p.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePackage, p.Name)
		}
		byName[p.Name] = i
	}

	return &Packages{list: list, byName: byName}, nil
}

// Get returns the package with the given name.
func (ps *Packages) Get(name string) (Package, bool) {
	i, ok := ps.byName[name]
	if !ok {
		return Package{}, false
	}
	return ps.list[i], true
}

// Has reports whether a package with the given name exists.
func (ps *Packages) Has(name string) bool {
	_, ok := ps.byName[name]
	return ok
}

// All returns the packages ordered by name.
func (ps *Packages) All() []Package {
	return slices.Clone(ps.list)
}

// Names returns the package names in order.
func (ps *Packages) Names() []string {
	names := make([]string, len(ps.list))
	for i, p := range ps.list {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of packages.
func (ps *Packages) Len() int {
	return len(ps.list)
}
