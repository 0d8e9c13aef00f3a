package releaseplan

import (
	"strings"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// relevantChangesets rejects changesets that mix ignored and non-ignored
// packages and, while in pre mode, drops changesets already versioned.
func relevantChangesets(cs []changes.Changeset, cfg Config, pre *prerelease.State) ([]changes.Changeset, error) {
	const op = "releaseplan.relevantChangesets"

	for _, c := range cs {
		var ignored, notIgnored []string
		for _, r := range c.Releases {
			if cfg.isIgnored(r.Name) {
				ignored = append(ignored, r.Name)
			} else {
				notIgnored = append(notIgnored, r.Name)
			}
		}
		if len(ignored) > 0 && len(notIgnored) > 0 {
			return nil, cperrors.Wrapf(ErrMixedChangeset, cperrors.KindValidation, op,
				"changeset %s releases ignored packages (%s) and not ignored packages (%s)",
				c.ID, strings.Join(ignored, " "), strings.Join(notIgnored, " "),
			).WithDetails(map[string]any{
				"changeset":   c.ID,
				"ignored":     ignored,
				"not_ignored": notIgnored,
			})
		}
	}

	if pre == nil || pre.Mode == prerelease.ModeExit {
		return cs, nil
	}

	out := make([]changes.Changeset, 0, len(cs))
	for _, c := range cs {
		if !pre.Consumed(c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// flattenReleases merges changesets into one release per package. Ignored
// packages are skipped; severities only escalate.
func flattenReleases(cs []changes.Changeset, pkgs *workspace.Packages, cfg Config) (*releaseSet, error) {
	const op = "releaseplan.flattenReleases"

	set := newReleaseSet()
	for _, c := range cs {
		for _, r := range c.Releases {
			if cfg.isIgnored(r.Name) {
				continue
			}
			pkg, ok := pkgs.Get(r.Name)
			if !ok {
				return nil, cperrors.Wrapf(ErrUnknownPackage, cperrors.KindNotFound, op,
					"changeset %q releases package %q which is not in the workspace", c.ID, r.Name,
				).WithDetails(map[string]any{"changeset": c.ID, "package": r.Name})
			}

			existing, ok := set.get(r.Name)
			if !ok {
				set.put(&InternalRelease{
					Name:       r.Name,
					Type:       r.Type,
					OldVersion: pkg.Version,
					Changesets: []string{c.ID},
				})
				continue
			}
			existing.Type = changes.MaxReleaseType(existing.Type, r.Type)
			existing.Changesets = append(existing.Changesets, c.ID)
		}
	}
	return set, nil
}

func validateChangesets(cs []changes.Changeset) error {
	const op = "releaseplan.validateChangesets"

	if err := changes.CheckUniqueIDs(cs); err != nil {
		return cperrors.Wrapf(ErrInvalidChangeset, cperrors.KindValidation, op, "%v", err)
	}
	for _, c := range cs {
		if err := c.Validate(); err != nil {
			return cperrors.Wrapf(ErrInvalidChangeset, cperrors.KindValidation, op, "%v", err)
		}
	}
	return nil
}
