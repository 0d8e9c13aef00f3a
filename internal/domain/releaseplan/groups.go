package releaseplan

import (
	"fmt"
	"strings"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/version"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

func describeGroup(group []string) string {
	return fmt.Sprintf("[%s]", strings.Join(group, ", "))
}

// validateGroups checks that every fixed and linked group member is a
// workspace package.
func validateGroups(pkgs *workspace.Packages, cfg Config) error {
	const op = "releaseplan.validateGroups"

	check := func(kind string, groups [][]string) error {
		for _, group := range groups {
			for _, name := range group {
				if !pkgs.Has(name) {
					return cperrors.Wrapf(ErrUnresolvedGroupMember, cperrors.KindConfig, op,
						"%s group %s names package %q which is not in the workspace", kind, describeGroup(group), name,
					).WithDetails(map[string]any{"group": describeGroup(group), "package": name})
				}
			}
		}
		return nil
	}

	if err := check("fixed", cfg.Fixed); err != nil {
		return err
	}
	return check("linked", cfg.Linked)
}

// highestReleaseType returns the most severe type among releases.
func highestReleaseType(releases []*InternalRelease) (changes.ReleaseType, error) {
	if len(releases) == 0 {
		return "", cperrors.Wrap(ErrInternalInvariant, cperrors.KindInternal,
			"releaseplan.highestReleaseType", "no releases to take the highest release type from")
	}

	highest := changes.ReleaseTypeNone
	for _, r := range releases {
		highest = changes.MaxReleaseType(highest, r.Type)
	}
	return highest, nil
}

// groupMembers returns the packages a group names, in group order. Groups
// reach the planner only after validateGroups, so every name resolves.
func groupMembers(group []string, pkgs *workspace.Packages) []workspace.Package {
	members := make([]workspace.Package, 0, len(group))
	for _, name := range group {
		if pkg, ok := pkgs.Get(name); ok {
			members = append(members, pkg)
		}
	}
	return members
}

// currentHighestVersion returns the greatest current version among the
// group members.
func currentHighestVersion(group []string, pkgs *workspace.Packages) (string, error) {
	const op = "releaseplan.currentHighestVersion"

	var (
		highest    version.Version
		highestRaw string
	)
	for _, pkg := range groupMembers(group, pkgs) {
		v, err := version.Parse(pkg.Version)
		if err != nil {
			return "", cperrors.InternalWrap(err, op, "workspace package has an invalid version")
		}
		if highestRaw == "" || v.Compare(highest) > 0 {
			highest, highestRaw = v, pkg.Version
		}
	}
	return highestRaw, nil
}

// matchFixedConstraint moves every non-ignored member of a fixed group onto
// the group's highest release type and highest current version, creating
// releases for members that have none.
func matchFixedConstraint(set *releaseSet, pkgs *workspace.Packages, cfg Config) (bool, error) {
	updated := false

	for _, group := range cfg.Fixed {
		releasing := set.inGroup(group)
		if len(releasing) == 0 {
			continue
		}

		highestType, err := highestReleaseType(releasing)
		if err != nil {
			return false, err
		}
		highestVersion, err := currentHighestVersion(group, pkgs)
		if err != nil {
			return false, err
		}

		for _, name := range group {
			if cfg.isIgnored(name) {
				continue
			}
			r, ok := set.get(name)
			if !ok {
				set.put(&InternalRelease{
					Name:       name,
					Type:       highestType,
					OldVersion: highestVersion,
					Changesets: []string{},
				})
				updated = true
				continue
			}
			if r.Type != highestType {
				r.Type = highestType
				updated = true
			}
			if r.OldVersion != highestVersion {
				r.OldVersion = highestVersion
				updated = true
			}
		}
	}
	return updated, nil
}

// applyLinks moves the releasing members of each linked group onto the
// group's highest release type and highest current version. Members without
// a release are left alone.
func applyLinks(set *releaseSet, pkgs *workspace.Packages, cfg Config) (bool, error) {
	updated := false

	for _, group := range cfg.Linked {
		releasing := set.inGroup(group)
		if len(releasing) == 0 {
			continue
		}

		highestType, err := highestReleaseType(releasing)
		if err != nil {
			return false, err
		}
		highestVersion, err := currentHighestVersion(group, pkgs)
		if err != nil {
			return false, err
		}

		for _, r := range releasing {
			if r.Type != highestType {
				r.Type = highestType
				updated = true
			}
			if r.OldVersion != highestVersion {
				r.OldVersion = highestVersion
				updated = true
			}
		}
	}
	return updated, nil
}
