package changes

import (
	"fmt"
	"slices"
	"strings"
)

// Release is a single package bump requested by a changeset.
type Release struct {
	Name string      `json:"name"`
	Type ReleaseType `json:"type"`
}

// Changeset is a user-authored declaration of which packages need a release
// and how severe each release is. Changesets are immutable inputs.
type Changeset struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Releases []Release `json:"releases"`
}

// Validate checks that the changeset has an id, valid severities and names
// each package at most once.
func (c Changeset) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyChangesetID
	}

	seen := make(map[string]struct{}, len(c.Releases))
	for _, r := range c.Releases {
		if !r.Type.IsValid() {
			return fmt.Errorf("changeset %q: %w: %q for %s", c.ID, ErrInvalidReleaseType, r.Type, r.Name)
		}
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("changeset %q: %w: %s", c.ID, ErrDuplicateRelease, r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// IsEmpty reports whether the changeset releases nothing.
func (c Changeset) IsEmpty() bool {
	return len(c.Releases) == 0
}

// PackageNames returns the names of the packages the changeset releases.
func (c Changeset) PackageNames() []string {
	names := make([]string, 0, len(c.Releases))
	for _, r := range c.Releases {
		names = append(names, r.Name)
	}
	return names
}

// Clone returns a deep copy.
func (c Changeset) Clone() Changeset {
	c.Releases = slices.Clone(c.Releases)
	return c
}

// SortedByID returns deep copies of the changesets ordered by id.
func SortedByID(cs []Changeset) []Changeset {
	out := make([]Changeset, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	slices.SortStableFunc(out, func(a, b Changeset) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// CheckUniqueIDs returns ErrDuplicateChangesetID if two changesets share an id.
func CheckUniqueIDs(cs []Changeset) error {
	seen := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateChangesetID, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// IDs returns the ids of the changesets in order.
func IDs(cs []Changeset) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}
