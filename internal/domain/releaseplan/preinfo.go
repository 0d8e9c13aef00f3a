package releaseplan

import (
	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/version"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// preInfo derives the per-call prerelease view. The returned state records
// every input changeset as consumed and fills in initial versions for
// packages that joined the workspace after pre mode was entered. Fixed and
// linked groups share the highest counter of their members.
func preInfo(cs []changes.Changeset, pkgs *workspace.Packages, cfg Config, state *prerelease.State) (*prerelease.Info, error) {
	if state == nil {
		return nil, nil
	}

	updated := state.Clone()
	updated.Changesets = changes.IDs(cs)
	for _, pkg := range pkgs.All() {
		if _, ok := updated.InitialVersions[pkg.Name]; !ok {
			updated.InitialVersions[pkg.Name] = pkg.Version
		}
	}

	counters := make(map[string]int, pkgs.Len())
	for _, pkg := range pkgs.All() {
		n, err := prereleaseCounter(pkg.Version)
		if err != nil {
			return nil, err
		}
		counters[pkg.Name] = n
	}

	groups := make([][]string, 0, len(cfg.Fixed)+len(cfg.Linked))
	groups = append(groups, cfg.Fixed...)
	groups = append(groups, cfg.Linked...)
	for _, group := range groups {
		highest := 0
		for _, name := range group {
			highest = max(highest, counters[name])
		}
		for _, name := range group {
			counters[name] = highest
		}
	}

	return &prerelease.Info{State: updated, Counters: counters}, nil
}

func prereleaseCounter(v string) (int, error) {
	n, err := version.PrereleaseCounter(v)
	if err != nil {
		return 0, cperrors.Wrapf(ErrInternalInvariant, cperrors.KindInternal,
			"releaseplan.prereleaseCounter", "cannot read prerelease counter of %s: %v", v, err)
	}
	return n, nil
}
