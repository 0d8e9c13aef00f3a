package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/releaseplan"
	"github.com/relicta-tech/changeplan/internal/domain/version"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// ValidationError contains all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(e.Errors, "\n  - ")))
	}

	if len(e.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(e.Warnings, "\n  - ")))
	}

	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (e *ValidationError) HasWarnings() bool {
	return len(e.Warnings) > 0
}

// Addf adds a formatted error to the validation error.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the validation error.
func (e *ValidationError) Warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// PackageSet reports whether a package name exists in the workspace.
type PackageSet interface {
	Has(name string) bool
}

// Validator validates configuration.
type Validator struct {
	result   *ValidationError
	packages PackageSet
}

// NewValidator creates a new configuration validator. Package membership
// checks are skipped until WithPackages is called.
func NewValidator() *Validator {
	return &Validator{
		result: &ValidationError{},
	}
}

// WithPackages enables checks against the discovered workspace packages.
func (v *Validator) WithPackages(pkgs PackageSet) *Validator {
	v.packages = pkgs
	return v
}

// Result returns the collected errors and warnings of the last Validate call.
func (v *Validator) Result() *ValidationError {
	return v.result
}

// Validate validates the configuration. Warnings never fail validation;
// read them through Result.
func (v *Validator) Validate(cfg *Config) error {
	v.result = &ValidationError{}

	v.validatePlanning(cfg)
	v.validateGroups(cfg)
	v.validateSnapshot(cfg.Snapshot)
	v.validateWorkspace(cfg.Workspace)
	v.validateOutput(cfg.Output)

	if v.result.HasErrors() {
		return cperrors.Validation("config.Validate", v.result.Error()).
			WithDetail("errors", len(v.result.Errors))
	}

	return nil
}

func (v *Validator) validatePlanning(cfg *Config) {
	validDeps := []string{string(changes.ReleaseTypePatch), string(changes.ReleaseTypeMinor)}
	if !slices.Contains(validDeps, cfg.UpdateInternalDependencies) {
		v.result.Addf("update_internal_dependencies: must be one of %v, got %q", validDeps, cfg.UpdateInternalDependencies)
	}

	validDependents := []string{
		string(releaseplan.UpdateDependentsOutOfRange),
		string(releaseplan.UpdateDependentsAlways),
	}
	mode := cfg.Experimental.UpdateInternalDependents
	if mode != "" && !slices.Contains(validDependents, mode) {
		v.result.Addf("experimental.update_internal_dependents: must be one of %v, got %q", validDependents, mode)
	}

	seen := make(map[string]bool, len(cfg.Ignore))
	for _, name := range cfg.Ignore {
		if seen[name] {
			v.result.Warnf("ignore: %q listed more than once", name)
		}
		seen[name] = true
		v.checkKnown("ignore", name)
	}
}

// validateGroups enforces group membership rules. A package belongs to at
// most one fixed group and never to both a fixed and a linked group.
func (v *Validator) validateGroups(cfg *Config) {
	fixedOwner := make(map[string]int)
	for i, group := range cfg.Fixed {
		field := fmt.Sprintf("fixed[%d]", i)
		if len(group) < 2 {
			v.result.Warnf("%s: group with fewer than two packages has no effect", field)
		}
		for _, name := range group {
			v.checkKnown(field, name)
			if prev, ok := fixedOwner[name]; ok && prev != i {
				v.result.Addf("%s: package %q is already in fixed[%d]", field, name, prev)
				continue
			}
			fixedOwner[name] = i
			if slices.Contains(cfg.Ignore, name) {
				v.result.Warnf("%s: package %q is ignored; it is skipped when the group is released", field, name)
			}
		}
	}

	linkedOwner := make(map[string]int)
	for i, group := range cfg.Linked {
		field := fmt.Sprintf("linked[%d]", i)
		if len(group) < 2 {
			v.result.Warnf("%s: group with fewer than two packages has no effect", field)
		}
		for _, name := range group {
			v.checkKnown(field, name)
			if prev, ok := fixedOwner[name]; ok {
				v.result.Addf("%s: package %q is also in fixed[%d]", field, name, prev)
			}
			if prev, ok := linkedOwner[name]; ok && prev != i {
				v.result.Warnf("%s: package %q is already in linked[%d]", field, name, prev)
			}
			linkedOwner[name] = i
		}
	}
}

func (v *Validator) validateSnapshot(cfg SnapshotConfig) {
	if cfg.PrereleaseTemplate == "" {
		return
	}
	// Render with placeholder values so only the template itself is judged.
	rendered := cfg.PrereleaseTemplate
	for _, ph := range []string{
		releaseplan.PlaceholderTag,
		releaseplan.PlaceholderCommit,
		releaseplan.PlaceholderTimestamp,
		releaseplan.PlaceholderDatetime,
	} {
		rendered = strings.ReplaceAll(rendered, ph, "x")
	}
	if !version.IsValid("0.0.0-" + rendered) {
		v.result.Addf("snapshot.prerelease_template: %q does not render a valid prerelease identifier", cfg.PrereleaseTemplate)
	}
	if !strings.Contains(cfg.PrereleaseTemplate, releaseplan.PlaceholderTag) {
		v.result.Warnf("snapshot.prerelease_template: no %s placeholder, snapshot tags cannot be used", releaseplan.PlaceholderTag)
	}
}

func (v *Validator) validateWorkspace(cfg WorkspaceConfig) {
	if len(cfg.PackagePaths) == 0 && !cfg.IncludeRoot {
		v.result.Addf("workspace.package_paths: at least one glob is required unless include_root is set")
	}
	for _, p := range append(slices.Clone(cfg.PackagePaths), cfg.ExcludePaths...) {
		if _, err := filepath.Match(p, ""); err != nil {
			v.result.Addf("workspace: invalid glob %q: %v", p, err)
		}
		if filepath.IsAbs(p) || strings.HasPrefix(filepath.Clean(p), "..") {
			v.result.Addf("workspace: glob %q must stay inside the workspace root", p)
		}
	}
	if cfg.ChangesetDir == "" {
		v.result.Addf("workspace.changeset_dir: must not be empty")
	}
	if cfg.PreStateFile == "" {
		v.result.Addf("workspace.pre_state_file: must not be empty")
	}
}

func (v *Validator) validateOutput(cfg OutputConfig) {
	validFormats := []string{"text", "json"}
	if !slices.Contains(validFormats, cfg.Format) {
		v.result.Addf("output.format: must be one of %v, got %q", validFormats, cfg.Format)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		v.result.Addf("output.log_level: must be one of %v, got %q", validLogLevels, cfg.LogLevel)
	}

	if cfg.Verbose && cfg.Quiet {
		v.result.Warnf("output: both verbose and quiet are enabled, quiet will take precedence")
	}
}

func (v *Validator) checkKnown(field, name string) {
	if v.packages == nil {
		return
	}
	if !v.packages.Has(name) {
		v.result.Addf("%s: package %q not found in the workspace", field, name)
	}
}

// Validate validates a configuration without workspace checks.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
