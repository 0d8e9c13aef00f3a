package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/relicta-tech/changeplan/internal/application/planning"
	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/prerelease"
	"github.com/relicta-tech/changeplan/internal/domain/releaseplan"
)

var titleCaser = cases.Title(language.English)

// releaseTypeOrder is the display order of release groups.
var releaseTypeOrder = []changes.ReleaseType{
	changes.ReleaseTypeMajor,
	changes.ReleaseTypeMinor,
	changes.ReleaseTypePatch,
	changes.ReleaseTypeNone,
}

// planJSON is the machine readable form of a plan.
type planJSON struct {
	Changesets []changes.Changeset   `json:"changesets"`
	Releases   []releaseplan.Release `json:"releases"`
	PreState   *prerelease.State     `json:"preState,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
}

// outputPlanJSON writes the plan as JSON.
func outputPlanJSON(w io.Writer, output *planning.PlanReleaseOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(planJSON{
		Changesets: output.Plan.Changesets,
		Releases:   output.Plan.Releases,
		PreState:   output.Plan.PreState,
		Warnings:   output.Warnings,
	})
}

// outputPlanText writes the plan grouped by release type.
func outputPlanText(w io.Writer, output *planning.PlanReleaseOutput) {
	plan := output.Plan

	printTitle(w, "Release Plan")
	fmt.Fprintln(w)

	for _, warning := range output.Warnings {
		printWarning(w, warning)
	}
	if len(output.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	if plan.PreState != nil {
		mode := "pre mode"
		if plan.PreState.Mode == prerelease.ModeExit {
			mode = "exiting pre mode"
		}
		printInfo(w, fmt.Sprintf("In %s with tag %q", mode, plan.PreState.Tag))
		fmt.Fprintln(w)
	}

	if len(plan.Releases) == 0 {
		printInfo(w, "No packages to release")
		return
	}

	byType := make(map[changes.ReleaseType][]releaseplan.Release)
	for _, r := range plan.Releases {
		byType[r.Type] = append(byType[r.Type], r)
	}

	for _, typ := range releaseTypeOrder {
		releases := byType[typ]
		if len(releases) == 0 {
			continue
		}
		printTitle(w, releaseTypeHeading(typ))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, r := range releases {
			fmt.Fprintf(tw, "  %s\t%s → %s\t%s\n", r.Name, r.OldVersion, r.NewVersion, changesetCount(len(r.Changesets)))
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	printSubtle(w, fmt.Sprintf("%d changesets, %d packages to release", len(plan.Changesets), len(plan.Bumped())))
}

func releaseTypeHeading(typ changes.ReleaseType) string {
	if typ == changes.ReleaseTypeNone {
		return "Dependency updates only"
	}
	return titleCaser.String(typ.String()) + " releases"
}

func changesetCount(n int) string {
	switch n {
	case 0:
		return "(dependency)"
	case 1:
		return "(1 changeset)"
	default:
		return fmt.Sprintf("(%d changesets)", n)
	}
}

// outputChangesetJSON writes a single changeset as JSON.
func outputChangesetJSON(w io.Writer, cs changes.Changeset) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cs)
}
