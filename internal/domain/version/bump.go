package version

import (
	"fmt"
	"strconv"
)

// BumpType is a semver increment. Changesets that release nothing never
// reach this package, so there is no "none" bump.
type BumpType string

const (
	BumpMajor BumpType = "major"
	BumpMinor BumpType = "minor"
	BumpPatch BumpType = "patch"
)

func (b BumpType) IsValid() bool {
	return b == BumpMajor || b == BumpMinor || b == BumpPatch
}

func (b BumpType) String() string { return string(b) }

// Increment bumps v the way npm's semver.inc does. A prerelease graduates
// through the smallest bump that reaches it: 1.0.1-beta.0 patch-bumps to
// 1.0.1, 1.1.0-beta.0 minor-bumps to 1.1.0 and 2.0.0-rc.1 major-bumps to
// 2.0.0. The result never carries prerelease or build identifiers.
func Increment(v Version, bump BumpType) Version {
	major, minor, patch := v.core[0], v.core[1], v.core[2]
	graduating := v.IsPrerelease()

	switch bump {
	case BumpMajor:
		if !graduating || minor != 0 || patch != 0 {
			major++
		}
		minor, patch = 0, 0
	case BumpMinor:
		if !graduating || patch != 0 {
			minor++
		}
		patch = 0
	case BumpPatch:
		if !graduating {
			patch++
		}
	default:
		return v
	}
	return Version{core: [3]uint64{major, minor, patch}}
}

// IncrementString parses s and bumps it.
func IncrementString(s string, bump BumpType) (string, error) {
	if !bump.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBumpType, bump)
	}
	v, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Increment(v, bump).String(), nil
}

// PrereleaseCounter returns the ordinal the next prerelease of s should use.
// That is one past the numeric second prerelease identifier, so
// 1.0.0-beta.3 gives 4. Versions without a second identifier give 0.
func PrereleaseCounter(s string) (int, error) {
	v, err := Parse(s)
	if err != nil {
		return 0, err
	}

	ids := v.preIdentifiers()
	if len(ids) < 2 {
		return 0, nil
	}
	n, err := strconv.Atoi(ids[1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q in %s", ErrNonNumericPrerelease, ids[1], s)
	}
	return n + 1, nil
}
