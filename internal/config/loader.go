package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

// ConfigFileName is the base name of the configuration file. It is looked
// up with each extension in ConfigFileExtensions, in order.
const ConfigFileName = ".changeplan"

var ConfigFileExtensions = []string{"yaml", "yml", "json", "toml"}

// setting binds a viper key to its field. Runtime settings are not written
// to generated config files.
type setting struct {
	key     string
	get     func(*Config) any
	runtime bool
}

var settings = []setting{
	{key: "ignore", get: func(c *Config) any { return c.Ignore }},
	{key: "fixed", get: func(c *Config) any { return c.Fixed }},
	{key: "linked", get: func(c *Config) any { return c.Linked }},
	{key: "update_internal_dependencies", get: func(c *Config) any { return c.UpdateInternalDependencies }},
	{key: "bump_versions_with_workspace_protocol_only", get: func(c *Config) any { return c.BumpVersionsWithWorkspaceProtocolOnly }},
	{key: "experimental.only_update_peer_dependents_when_out_of_range", get: func(c *Config) any { return c.Experimental.OnlyUpdatePeerDependentsWhenOutOfRange }},
	{key: "experimental.update_internal_dependents", get: func(c *Config) any { return c.Experimental.UpdateInternalDependents }},
	{key: "snapshot.use_calculated_version", get: func(c *Config) any { return c.Snapshot.UseCalculatedVersion }},
	{key: "snapshot.prerelease_template", get: func(c *Config) any { return c.Snapshot.PrereleaseTemplate }},
	{key: "private_packages.version", get: func(c *Config) any { return c.PrivatePackages.Version }},
	{key: "workspace.package_paths", get: func(c *Config) any { return c.Workspace.PackagePaths }},
	{key: "workspace.exclude_paths", get: func(c *Config) any { return c.Workspace.ExcludePaths }},
	{key: "workspace.include_root", get: func(c *Config) any { return c.Workspace.IncludeRoot }},
	{key: "workspace.changeset_dir", get: func(c *Config) any { return c.Workspace.ChangesetDir }},
	{key: "workspace.pre_state_file", get: func(c *Config) any { return c.Workspace.PreStateFile }},
	{key: "output.format", get: func(c *Config) any { return c.Output.Format }},
	{key: "output.color", get: func(c *Config) any { return c.Output.Color }},
	{key: "output.log_level", get: func(c *Config) any { return c.Output.LogLevel }},
	{key: "output.verbose", get: func(c *Config) any { return c.Output.Verbose }, runtime: true},
	{key: "output.quiet", get: func(c *Config) any { return c.Output.Quiet }, runtime: true},
	{key: "output.log_file", get: func(c *Config) any { return c.Output.LogFile }, runtime: true},
}

// envRef matches ${VAR}, ${VAR:-default} and $VAR.
var envRef = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Loader reads the configuration from defaults, an optional file and
// CHANGEPLAN_* environment variables, in increasing priority.
type Loader struct {
	v           *viper.Viper
	configPath  string
	searchPaths []string
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("CHANGEPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, searchPaths: []string{"."}}
}

// WithConfigPath reads path instead of searching for a config file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithSearchPaths sets the directories searched for a config file.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.searchPaths = paths
	return l
}

func (l *Loader) Load() (*Config, error) {
	const op = "config.Load"

	defaults := DefaultConfig()
	for _, s := range settings {
		l.v.SetDefault(s.key, s.get(defaults))
	}

	if err := l.readFile(); err != nil {
		return nil, cperrors.ConfigWrap(err, op, "failed to load config file")
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, cperrors.ConfigWrap(err, op, "failed to unmarshal config")
	}

	cfg.Snapshot.PrereleaseTemplate = expandEnv(cfg.Snapshot.PrereleaseTemplate)
	cfg.Output.LogFile = expandEnv(cfg.Output.LogFile)
	return cfg, nil
}

// readFile reads the explicit or discovered config file. Having none is fine.
func (l *Loader) readFile() error {
	path := l.configPath
	if path == "" {
		found, ok := findConfigFile(l.searchPaths)
		if !ok {
			return nil
		}
		path = found
	}

	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// expandEnv substitutes environment references. An unset ${VAR} becomes its
// default or empty, an unset $VAR is kept verbatim.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if m[3] != "" {
			if value, ok := os.LookupEnv(m[3]); ok && value != "" {
				return value
			}
			return ref
		}
		if value := os.Getenv(m[1]); value != "" {
			return value
		}
		return m[2]
	})
}

// WriteConfig writes cfg to path in the format named by its extension.
func WriteConfig(cfg *Config, path string) error {
	v := viper.New()
	for _, s := range settings {
		if s.runtime {
			continue
		}
		switch value := s.get(cfg).(type) {
		case string:
			if value != "" {
				v.Set(s.key, value)
			}
		case []string:
			if value != nil {
				v.Set(s.key, value)
			}
		default:
			v.Set(s.key, value)
		}
	}

	if err := v.WriteConfigAs(path); err != nil {
		return cperrors.ConfigWrap(err, "config.WriteConfig", "failed to write config file")
	}
	return nil
}

// WriteDefault writes the default configuration to path unless a file
// is already there.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return cperrors.Conflict("config.WriteDefault", "config file already exists").WithDetail("path", path)
	}
	return WriteConfig(DefaultConfig(), path)
}

// FindConfigFile returns the first config file found in searchPaths, which
// default to the current directory.
func FindConfigFile(searchPaths ...string) (string, error) {
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}
	if path, ok := findConfigFile(searchPaths); ok {
		return path, nil
	}
	return "", cperrors.NotFound("config.FindConfigFile", "no config file found")
}

func findConfigFile(searchPaths []string) (string, bool) {
	for _, dir := range searchPaths {
		for _, ext := range ConfigFileExtensions {
			path := filepath.Join(dir, ConfigFileName+"."+ext)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}
	return "", false
}
