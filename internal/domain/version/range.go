package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// anyRange is what npm reads a bare operator (from "workspace:^") or an empty
// range as.
const anyRange = "*"

func normalizeRange(r string) string {
	r = strings.TrimSpace(r)
	switch r {
	case "", "^", "~":
		return anyRange
	}
	return r
}

// Satisfies reports whether version v falls within the range r. Unparsable
// versions or ranges never satisfy. A prerelease version only satisfies a
// "||" branch that it matches and that names a prerelease of the same
// major.minor.patch, so ^1.0.1-beta.0 admits 1.0.1-beta.1 but not
// 1.1.0-beta.1.
func Satisfies(v, r string) bool {
	sv, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	r = normalizeRange(r)
	c, err := semver.NewConstraint(r)
	if err != nil {
		return false
	}
	if !c.Check(sv) {
		return false
	}
	if sv.Prerelease() == "" {
		return true
	}

	core := [3]uint64{sv.Major(), sv.Minor(), sv.Patch()}
	for _, branch := range strings.Split(r, "||") {
		bc, err := semver.NewConstraint(branch)
		if err != nil || !bc.Check(sv) {
			continue
		}
		if namesPrereleaseOf(branch, core) {
			return true
		}
	}
	return false
}

// namesPrereleaseOf reports whether any comparator in branch is a prerelease
// with the given core.
func namesPrereleaseOf(branch string, core [3]uint64) bool {
	tokens := strings.FieldsFunc(branch, func(r rune) bool { return r == ' ' || r == ',' })
	for _, tok := range tokens {
		cv, err := Parse(strings.TrimLeft(tok, "^~<>=!"))
		if err == nil && cv.IsPrerelease() && cv.core == core {
			return true
		}
	}
	return false
}

// ValidRange reports whether r parses as a version range.
func ValidRange(r string) bool {
	_, err := semver.NewConstraint(normalizeRange(r))
	return err == nil
}
