// Package config provides configuration management for changeplan.
package config

import (
	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/releaseplan"
)

// Config is the root configuration for changeplan.
type Config struct {
	// Ignore lists packages that must never be released by a plan.
	Ignore []string `mapstructure:"ignore" json:"ignore"`
	// Fixed lists groups of packages that always release together at the
	// same version.
	Fixed [][]string `mapstructure:"fixed" json:"fixed"`
	// Linked lists groups of packages whose releasing members share the
	// highest severity and version.
	Linked [][]string `mapstructure:"linked" json:"linked"`
	// UpdateInternalDependencies is the minimum severity that causes
	// dependency ranges to be rewritten (patch, minor).
	UpdateInternalDependencies string `mapstructure:"update_internal_dependencies" json:"update_internal_dependencies"`
	// BumpVersionsWithWorkspaceProtocolOnly restricts propagation to
	// dependencies declared with the workspace: protocol.
	BumpVersionsWithWorkspaceProtocolOnly bool `mapstructure:"bump_versions_with_workspace_protocol_only" json:"bump_versions_with_workspace_protocol_only"`
	// Experimental holds options that may change between releases.
	Experimental ExperimentalConfig `mapstructure:"experimental" json:"experimental"`
	// Snapshot configures snapshot versions.
	Snapshot SnapshotConfig `mapstructure:"snapshot" json:"snapshot"`
	// PrivatePackages controls how private packages are treated.
	PrivatePackages PrivatePackagesConfig `mapstructure:"private_packages" json:"private_packages"`
	// Workspace configures where packages and changesets live.
	Workspace WorkspaceConfig `mapstructure:"workspace" json:"workspace"`
	// Output configures output settings.
	Output OutputConfig `mapstructure:"output" json:"output"`
}

// ExperimentalConfig holds experimental planning options.
type ExperimentalConfig struct {
	// OnlyUpdatePeerDependentsWhenOutOfRange stops minor and major releases
	// from forcing a major release of peer dependents whose range still matches.
	OnlyUpdatePeerDependentsWhenOutOfRange bool `mapstructure:"only_update_peer_dependents_when_out_of_range" json:"only_update_peer_dependents_when_out_of_range"`
	// UpdateInternalDependents is "out-of-range" (default) or "always".
	UpdateInternalDependents string `mapstructure:"update_internal_dependents" json:"update_internal_dependents"`
}

// SnapshotConfig configures snapshot versions.
type SnapshotConfig struct {
	// UseCalculatedVersion bases snapshot versions on the planned version
	// instead of 0.0.0.
	UseCalculatedVersion bool `mapstructure:"use_calculated_version" json:"use_calculated_version"`
	// PrereleaseTemplate renders the snapshot suffix. Supports {tag},
	// {commit}, {timestamp} and {datetime}.
	PrereleaseTemplate string `mapstructure:"prerelease_template" json:"prerelease_template,omitempty"`
}

// PrivatePackagesConfig controls private packages.
type PrivatePackagesConfig struct {
	// Version allows changesets for private packages.
	Version bool `mapstructure:"version" json:"version"`
}

// WorkspaceConfig locates workspace content.
type WorkspaceConfig struct {
	// PackagePaths are globs, relative to the root, matching package directories.
	PackagePaths []string `mapstructure:"package_paths" json:"package_paths"`
	// ExcludePaths are globs of directories skipped during discovery.
	ExcludePaths []string `mapstructure:"exclude_paths" json:"exclude_paths,omitempty"`
	// IncludeRoot treats the root directory as a package too.
	IncludeRoot bool `mapstructure:"include_root" json:"include_root"`
	// ChangesetDir is the directory holding changeset files.
	ChangesetDir string `mapstructure:"changeset_dir" json:"changeset_dir"`
	// PreStateFile is the prerelease state file.
	PreStateFile string `mapstructure:"pre_state_file" json:"pre_state_file"`
}

// OutputConfig configures output settings.
type OutputConfig struct {
	// Format is the output format (text, json).
	Format string `mapstructure:"format" json:"format"`
	// Color enables colored output.
	Color bool `mapstructure:"color" json:"color"`
	// Verbose enables verbose output.
	Verbose bool `mapstructure:"verbose" json:"verbose"`
	// Quiet suppresses non-essential output.
	Quiet bool `mapstructure:"quiet" json:"quiet"`
	// LogLevel is the log level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	// LogFile is an optional file that receives log output.
	LogFile string `mapstructure:"log_file" json:"log_file,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Ignore:                     []string{},
		Fixed:                      [][]string{},
		Linked:                     [][]string{},
		UpdateInternalDependencies: string(changes.ReleaseTypePatch),
		Experimental: ExperimentalConfig{
			UpdateInternalDependents: string(releaseplan.UpdateDependentsOutOfRange),
		},
		PrivatePackages: PrivatePackagesConfig{Version: true},
		Workspace: WorkspaceConfig{
			PackagePaths: []string{"packages/*"},
			ChangesetDir: ".changeset",
			PreStateFile: ".changeset/pre.json",
		},
		Output: OutputConfig{
			Format:   "text",
			Color:    true,
			LogLevel: "info",
		},
	}
}

// PlanConfig converts the file configuration into planning configuration.
func (c *Config) PlanConfig() releaseplan.Config {
	cfg := releaseplan.Config{
		Ignore:                                 append([]string(nil), c.Ignore...),
		Fixed:                                  cloneGroups(c.Fixed),
		Linked:                                 cloneGroups(c.Linked),
		UpdateInternalDependencies:             changes.ReleaseType(c.UpdateInternalDependencies),
		BumpVersionsWithWorkspaceProtocolOnly:  c.BumpVersionsWithWorkspaceProtocolOnly,
		OnlyUpdatePeerDependentsWhenOutOfRange: c.Experimental.OnlyUpdatePeerDependentsWhenOutOfRange,
		UpdateInternalDependents:               releaseplan.UpdateInternalDependents(c.Experimental.UpdateInternalDependents),
		Snapshot: releaseplan.SnapshotConfig{
			UseCalculatedVersion: c.Snapshot.UseCalculatedVersion,
			PrereleaseTemplate:   c.Snapshot.PrereleaseTemplate,
		},
	}
	if cfg.UpdateInternalDependents == "" {
		cfg.UpdateInternalDependents = releaseplan.UpdateDependentsOutOfRange
	}
	return cfg
}

func cloneGroups(groups [][]string) [][]string {
	out := make([][]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, append([]string(nil), g...))
	}
	return out
}
