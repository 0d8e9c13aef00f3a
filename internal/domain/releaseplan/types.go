// Package releaseplan computes release plans: which workspace packages must
// be released, with which severity and at which version.
package releaseplan

import (
	"slices"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
)

// UpdateInternalDependents selects when a dependent is bumped because one of
// its workspace dependencies is released.
type UpdateInternalDependents string

const (
	// UpdateDependentsOutOfRange bumps a dependent only when its declared
	// range no longer accepts the dependency's next version.
	UpdateDependentsOutOfRange UpdateInternalDependents = "out-of-range"
	// UpdateDependentsAlways bumps every dependent.
	UpdateDependentsAlways UpdateInternalDependents = "always"
)

// SnapshotConfig controls snapshot versions.
type SnapshotConfig struct {
	// UseCalculatedVersion bases snapshots on the computed next version
	// instead of 0.0.0.
	UseCalculatedVersion bool
	// PrereleaseTemplate renders the snapshot suffix. Empty means the
	// default "{tag}-{datetime}" layout with empty parts dropped.
	PrereleaseTemplate string
}

// Config is the planning configuration.
type Config struct {
	Ignore []string
	Fixed  [][]string
	Linked [][]string

	// UpdateInternalDependencies is carried for consumers that rewrite
	// dependency ranges. Planning does not read it.
	UpdateInternalDependencies changes.ReleaseType

	BumpVersionsWithWorkspaceProtocolOnly  bool
	OnlyUpdatePeerDependentsWhenOutOfRange bool
	UpdateInternalDependents               UpdateInternalDependents

	Snapshot SnapshotConfig
}

func (c Config) isIgnored(name string) bool {
	return slices.Contains(c.Ignore, name)
}

// SnapshotParams requests a snapshot plan. An empty field counts as not set.
type SnapshotParams struct {
	Tag    string
	Commit string
}

// InternalRelease is a release pending inside one plan computation.
type InternalRelease struct {
	Name       string
	Type       changes.ReleaseType
	OldVersion string
	Changesets []string
}

// Release is a release in the computed plan.
type Release struct {
	Name       string              `json:"name"`
	Type       changes.ReleaseType `json:"type"`
	OldVersion string              `json:"oldVersion"`
	NewVersion string              `json:"newVersion"`
	Changesets []string            `json:"changesets"`
}

// Plan is the result of a plan computation.
type Plan struct {
	Changesets []changes.Changeset `json:"changesets"`
	Releases   []Release           `json:"releases"`
	PreState   *prerelease.State   `json:"preState,omitempty"`
}

// Release returns the release for a package.
func (p *Plan) Release(name string) (Release, bool) {
	for _, r := range p.Releases {
		if r.Name == name {
			return r, true
		}
	}
	return Release{}, false
}

// Bumped returns the releases whose version changes.
func (p *Plan) Bumped() []Release {
	out := make([]Release, 0, len(p.Releases))
	for _, r := range p.Releases {
		if r.Type != changes.ReleaseTypeNone {
			out = append(out, r)
		}
	}
	return out
}

// releaseSet is the release map owned by a single plan computation. It keeps
// insertion order so every pass visits releases deterministically.
type releaseSet struct {
	order  []string
	byName map[string]*InternalRelease
}

func newReleaseSet() *releaseSet {
	return &releaseSet{byName: make(map[string]*InternalRelease)}
}

func (s *releaseSet) get(name string) (*InternalRelease, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// put stores r, replacing any release with the same name in place.
func (s *releaseSet) put(r *InternalRelease) {
	if _, ok := s.byName[r.Name]; !ok {
		s.order = append(s.order, r.Name)
	}
	s.byName[r.Name] = r
}

func (s *releaseSet) values() []*InternalRelease {
	out := make([]*InternalRelease, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// inGroup returns the releases of group members whose type is not none.
func (s *releaseSet) inGroup(group []string) []*InternalRelease {
	var out []*InternalRelease
	for _, r := range s.values() {
		if r.Type != changes.ReleaseTypeNone && slices.Contains(group, r.Name) {
			out = append(out, r)
		}
	}
	return out
}
