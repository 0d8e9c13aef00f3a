// Package prerelease models prerelease ("pre") mode: the state persisted
// between plan computations and the counters derived from it.
package prerelease

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Mode is the prerelease mode recorded in the pre state.
type Mode string

const (
	// ModePre means versions carry a prerelease tag and counter.
	ModePre Mode = "pre"
	// ModeExit means the next versioning leaves prerelease mode.
	ModeExit Mode = "exit"
)

// IsValid returns true if the mode is known.
func (m Mode) IsValid() bool {
	return m == ModePre || m == ModeExit
}

// State is the prerelease marker persisted between invocations.
type State struct {
	Mode            Mode              `json:"mode"`
	Tag             string            `json:"tag"`
	InitialVersions map[string]string `json:"initialVersions"`
	Changesets      []string          `json:"changesets"`
}

// Validate checks the mode and tag.
func (s *State) Validate() error {
	if !s.Mode.IsValid() {
		return fmt.Errorf("%w: mode %q", ErrInvalidState, s.Mode)
	}
	if strings.TrimSpace(s.Tag) == "" {
		return fmt.Errorf("%w: empty tag", ErrInvalidState)
	}
	return nil
}

// Clone returns a deep copy. Cloning nil returns nil.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.InitialVersions = maps.Clone(s.InitialVersions)
	if out.InitialVersions == nil {
		out.InitialVersions = map[string]string{}
	}
	out.Changesets = slices.Clone(s.Changesets)
	if out.Changesets == nil {
		out.Changesets = []string{}
	}
	return &out
}

// Consumed reports whether the changeset id was already versioned in pre mode.
func (s *State) Consumed(id string) bool {
	return slices.Contains(s.Changesets, id)
}

// Info is the per-call view of the pre state together with the next
// prerelease counter of every package.
type Info struct {
	State    *State
	Counters map[string]int
}

// Counter returns the counter for a package.
func (i *Info) Counter(name string) int {
	return i.Counters[name]
}

// Exiting reports whether the pre state is leaving prerelease mode.
func (i *Info) Exiting() bool {
	return i.State.Mode == ModeExit
}
