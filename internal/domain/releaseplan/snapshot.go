package releaseplan

import (
	"strconv"
	"strings"
	"time"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// snapshotBaseVersion keeps snapshots below every real release so range
// resolvers never pick one over a regular prerelease.
const snapshotBaseVersion = "0.0.0"

// Snapshot template placeholders.
const (
	PlaceholderTag       = "{tag}"
	PlaceholderCommit    = "{commit}"
	PlaceholderTimestamp = "{timestamp}"
	PlaceholderDatetime  = "{datetime}"
)

// SnapshotSuffix renders the snapshot suffix for params at time now.
//
// Without a template the suffix is the tag and the UTC datetime joined by
// "-", skipping an empty tag. A template must contain {tag} whenever a tag
// is given, and every placeholder it uses must have a value.
func SnapshotSuffix(template string, params SnapshotParams, now time.Time) (string, error) {
	const op = "releaseplan.SnapshotSuffix"

	now = now.UTC()
	values := []struct {
		placeholder string
		value       string
	}{
		{PlaceholderCommit, params.Commit},
		{PlaceholderTag, params.Tag},
		{PlaceholderTimestamp, strconv.FormatInt(now.UnixMilli(), 10)},
		{PlaceholderDatetime, now.Format("20060102150405")},
	}
	datetime := values[3].value

	if template == "" {
		parts := make([]string, 0, 2)
		if params.Tag != "" {
			parts = append(parts, params.Tag)
		}
		parts = append(parts, datetime)
		return strings.Join(parts, "-"), nil
	}

	if params.Tag != "" && !strings.Contains(template, PlaceholderTag) {
		return "", cperrors.Wrapf(ErrSnapshotTemplate, cperrors.KindTemplate, op,
			"%s placeholder is missing from template %q, but the snapshot tag is set (value: %q)",
			PlaceholderTag, template, params.Tag,
		).WithDetail("template", template)
	}

	out := template
	for _, v := range values {
		if !strings.Contains(out, v.placeholder) {
			continue
		}
		if v.value == "" {
			return "", cperrors.Wrapf(ErrSnapshotTemplate, cperrors.KindTemplate, op,
				"%s placeholder is used in template %q without having a value", v.placeholder, template,
			).WithDetails(map[string]any{"template": template, "placeholder": v.placeholder})
		}
		out = strings.ReplaceAll(out, v.placeholder, v.value)
	}
	return out, nil
}

// snapshotVersion returns the snapshot version of a release.
func snapshotVersion(r *InternalRelease, pre *prerelease.Info, useCalculated bool, suffix string) (string, error) {
	if r.Type == changes.ReleaseTypeNone {
		return r.OldVersion, nil
	}

	base := snapshotBaseVersion
	if useCalculated {
		next, err := incrementVersion(r, pre)
		if err != nil {
			return "", err
		}
		base = next
	}
	return base + "-" + suffix, nil
}
