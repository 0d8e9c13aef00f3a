package releaseplan

import (
	"strings"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/version"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// propagation carries the read-only inputs of the dependents pass.
type propagation struct {
	pkgs  *workspace.Packages
	graph workspace.DependentsGraph
	pre   *prerelease.Info
	cfg   Config
}

// determineDependents walks a FIFO queue seeded with every current release
// and adds or escalates releases for their dependents. It reports whether
// the release set changed.
func (p *propagation) determineDependents(set *releaseSet) (bool, error) {
	const op = "releaseplan.determineDependents"

	updated := false
	queue := set.values()

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		dependents, ok := p.graph.Dependents(next.Name)
		if !ok {
			return false, cperrors.Wrapf(ErrInternalInvariant, cperrors.KindInternal, op,
				"package %q is missing from the dependents graph", next.Name)
		}

		for _, dependent := range dependents {
			pkg, ok := p.pkgs.Get(dependent)
			if !ok {
				return false, cperrors.Wrapf(ErrInternalInvariant, cperrors.KindInternal, op,
					"dependents graph names unknown package %q", dependent)
			}

			required, err := p.requiredType(set, next, pkg)
			if err != nil {
				return false, err
			}
			existing, exists := set.get(dependent)
			if required == "" || (exists && existing.Type == required) {
				continue
			}

			updated = true
			if exists {
				existing.Type = required
				queue = append(queue, existing)
				continue
			}

			created := &InternalRelease{
				Name:       dependent,
				Type:       required,
				OldVersion: pkg.Version,
				Changesets: []string{},
			}
			set.put(created)
			queue = append(queue, created)
		}
	}
	return updated, nil
}

// requiredType computes the release type dependent needs because next is
// being released. An empty result means no requirement.
func (p *propagation) requiredType(set *releaseSet, next *InternalRelease, dependent workspace.Package) (changes.ReleaseType, error) {
	if p.cfg.isIgnored(dependent.Name) {
		return changes.ReleaseTypeNone, nil
	}
	if next.Type == changes.ReleaseTypeNone {
		return "", nil
	}

	var required changes.ReleaseType
	for _, dep := range dependencyRanges(dependent.Manifest, next) {
		bumpMajor, err := p.shouldBumpMajor(set, dependent.Name, dep, next)
		if err != nil {
			return "", err
		}
		if bumpMajor {
			required = changes.ReleaseTypeMajor
			continue
		}

		existing, exists := set.get(dependent.Name)
		if exists && existing.Type != changes.ReleaseTypeNone {
			continue
		}
		if p.cfg.UpdateInternalDependents != UpdateDependentsAlways {
			inRange, err := p.nextVersionInRange(next, dep.Range)
			if err != nil {
				return "", err
			}
			if inRange {
				continue
			}
		}

		switch dep.Kind {
		case workspace.DependencyRuntime, workspace.DependencyOptional, workspace.DependencyPeer:
			if required != changes.ReleaseTypeMajor && required != changes.ReleaseTypeMinor {
				required = changes.ReleaseTypePatch
			}
		case workspace.DependencyDev:
			if required == "" {
				required = changes.ReleaseTypeNone
			}
		}
	}
	return required, nil
}

// shouldBumpMajor reports whether a peer dependency forces the dependent to
// a major release: the dependency is released as minor or major and, when
// configured, its next version leaves the declared range.
func (p *propagation) shouldBumpMajor(set *releaseSet, dependent string, dep workspace.DependencyRange, next *InternalRelease) (bool, error) {
	if dep.Kind != workspace.DependencyPeer {
		return false, nil
	}
	if next.Type != changes.ReleaseTypeMinor && next.Type != changes.ReleaseTypeMajor {
		return false, nil
	}
	if existing, ok := set.get(dependent); ok && existing.Type == changes.ReleaseTypeMajor {
		return false, nil
	}
	if !p.cfg.OnlyUpdatePeerDependentsWhenOutOfRange {
		return true, nil
	}
	inRange, err := p.nextVersionInRange(next, dep.Range)
	if err != nil {
		return false, err
	}
	return !inRange, nil
}

func (p *propagation) nextVersionInRange(next *InternalRelease, rng string) (bool, error) {
	v, err := incrementVersion(next, p.pre)
	if err != nil {
		return false, err
	}
	return version.Satisfies(v, rng), nil
}

// dependencyRanges lists every entry the manifest has for the released
// package, resolving workspace ranges. "workspace:*" pins the dependency's
// current version exactly; other workspace ranges lose their prefix.
func dependencyRanges(m workspace.Manifest, next *InternalRelease) []workspace.DependencyRange {
	ranges := m.RangesFor(next.Name)
	for i, dep := range ranges {
		if !workspace.IsWorkspaceRange(dep.Range) {
			continue
		}
		if dep.Range == workspace.WorkspaceProtocol+"*" {
			ranges[i].Range = next.OldVersion
		} else {
			ranges[i].Range = strings.TrimPrefix(dep.Range, workspace.WorkspaceProtocol)
		}
	}
	return ranges
}
