package releaseplan

import (
	"strconv"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/version"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// incrementVersion returns the next version of a release. In pre mode the
// result carries "-{tag}.{counter}"; an exiting pre state produces final
// versions.
func incrementVersion(r *InternalRelease, pre *prerelease.Info) (string, error) {
	bump, ok := r.Type.ToBumpType()
	if !ok {
		return r.OldVersion, nil
	}

	next, err := version.IncrementString(r.OldVersion, bump)
	if err != nil {
		return "", cperrors.Wrapf(ErrInternalInvariant, cperrors.KindInternal,
			"releaseplan.incrementVersion", "cannot increment %s of %s: %v", r.OldVersion, r.Name, err)
	}

	if pre != nil && pre.State.Mode != prerelease.ModeExit {
		next += "-" + pre.State.Tag + "." + strconv.Itoa(pre.Counter(r.Name))
	}
	return next, nil
}

// newVersion returns the planned version of a release outside snapshots.
func newVersion(r *InternalRelease, pre *prerelease.Info) (string, error) {
	if r.Type == changes.ReleaseTypeNone {
		return r.OldVersion, nil
	}
	return incrementVersion(r, pre)
}
