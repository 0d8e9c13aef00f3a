// Package version implements the semver arithmetic the release planner
// needs: parsing package versions, ordering them, bumping them the way npm
// does and matching them against dependency ranges.
package version

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidVersion       = errors.New("invalid semantic version")
	ErrInvalidBumpType      = errors.New("invalid bump type")
	ErrNonNumericPrerelease = errors.New("prerelease counter is not a number")
)

var versionPattern = regexp.MustCompile(
	`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?` +
		`(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// Version is a parsed semantic version. The zero value is 0.0.0.
type Version struct {
	core  [3]uint64
	pre   string
	build string
}

// Parse reads s as a semantic version, tolerating surrounding whitespace and
// a leading "v".
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	v := Version{pre: m[4], build: m[5]}
	for i := range v.core {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
		}
		v.core[i] = n
	}
	return v, nil
}

// IsValid reports whether s is a semantic version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (v Version) IsPrerelease() bool { return v.pre != "" }

// preIdentifiers splits the prerelease into its dot separated identifiers.
func (v Version) preIdentifiers() []string {
	if v.pre == "" {
		return nil
	}
	return strings.Split(v.pre, ".")
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.core[0], v.core[1], v.core[2])
	if v.pre != "" {
		s += "-" + v.pre
	}
	if v.build != "" {
		s += "+" + v.build
	}
	return s
}

// Compare orders versions by semver precedence and returns -1, 0 or +1.
// Build metadata does not take part.
func (v Version) Compare(o Version) int {
	for i := range v.core {
		if c := cmp.Compare(v.core[i], o.core[i]); c != 0 {
			return c
		}
	}
	switch {
	case v.pre == o.pre:
		return 0
	case v.pre == "":
		return 1
	case o.pre == "":
		return -1
	}
	return comparePre(v.preIdentifiers(), o.preIdentifiers())
}

// comparePre compares prerelease identifiers pairwise. Numeric identifiers
// sort numerically and before alphanumeric ones. On a common prefix the
// shorter list sorts first.
func comparePre(a, b []string) int {
	for i := 0; i < min(len(a), len(b)); i++ {
		an, aErr := strconv.ParseUint(a[i], 10, 64)
		bn, bErr := strconv.ParseUint(b[i], 10, 64)

		var c int
		switch {
		case aErr == nil && bErr == nil:
			c = cmp.Compare(an, bn)
		case aErr == nil:
			c = -1
		case bErr == nil:
			c = 1
		default:
			c = strings.Compare(a[i], b[i])
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}
