// Package changes holds the changeset files a release plan is built from
// and the release severities they declare.
package changes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/relicta-tech/changeplan/internal/domain/version"
)

// ReleaseType is the severity a changeset asks for. Severities are totally
// ordered: none < patch < minor < major.
type ReleaseType string

const (
	ReleaseTypeNone  ReleaseType = "none"
	ReleaseTypePatch ReleaseType = "patch"
	ReleaseTypeMinor ReleaseType = "minor"
	ReleaseTypeMajor ReleaseType = "major"
)

// severities lists the release types from least to most severe.
var severities = []ReleaseType{ReleaseTypeNone, ReleaseTypePatch, ReleaseTypeMinor, ReleaseTypeMajor}

func (r ReleaseType) String() string { return string(r) }

func (r ReleaseType) IsValid() bool { return r.rank() >= 0 }

// rank is the position of r in severities, or -1 for unknown values.
func (r ReleaseType) rank() int { return slices.Index(severities, r) }

// Exceeds reports whether r is strictly more severe than other.
func (r ReleaseType) Exceeds(other ReleaseType) bool {
	return r.rank() > other.rank()
}

// ToBumpType maps r onto a semver bump. None has no bump and reports false.
func (r ReleaseType) ToBumpType() (version.BumpType, bool) {
	if r == ReleaseTypeNone || !r.IsValid() {
		return "", false
	}
	return version.BumpType(r), true
}

// ParseReleaseType reads a release type case-insensitively, as written in
// changeset frontmatter or on the command line.
func ParseReleaseType(s string) (ReleaseType, error) {
	r := ReleaseType(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReleaseType, s)
	}
	return r, nil
}

// MaxReleaseType returns the more severe of a and b.
func MaxReleaseType(a, b ReleaseType) ReleaseType {
	if b.Exceeds(a) {
		return b
	}
	return a
}
