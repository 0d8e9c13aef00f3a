package manifest

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/relicta-tech/changeplan/internal/domain/workspace"
)

// CargoManifestFile is the Cargo package manifest name.
const CargoManifestFile = "Cargo.toml"

type cargoManifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
		Publish any    `toml:"publish"`
	} `toml:"package"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

func parseCargo(data []byte) (workspace.Package, error) {
	var cm cargoManifest
	if err := toml.Unmarshal(data, &cm); err != nil {
		return workspace.Package{}, fmt.Errorf("parse %s: %w", CargoManifestFile, err)
	}

	pkg := workspace.Package{
		Name: cm.Package.Name,
		Type: workspace.PackageTypeCargo,
	}
	// version.workspace = true leaves the version to the workspace root,
	// which is not a package here.
	if v, ok := cm.Package.Version.(string); ok {
		pkg.Version = v
	}
	if publish, ok := cm.Package.Publish.(bool); ok && !publish {
		pkg.Private = true
	}

	for name, entry := range cm.Dependencies {
		dep, rng, optional := cargoDependency(name, entry)
		kind := workspace.DependencyRuntime
		if optional {
			kind = workspace.DependencyOptional
		}
		pkg.Manifest.SetDep(kind, dep, rng)
	}
	for _, deps := range []map[string]any{cm.DevDependencies, cm.BuildDependencies} {
		for name, entry := range deps {
			dep, rng, _ := cargoDependency(name, entry)
			pkg.Manifest.SetDep(workspace.DependencyDev, dep, rng)
		}
	}
	return pkg, nil
}

// cargoDependency resolves a dependency entry to the depended-on package
// name and a range in npm syntax. Local path and workspace-inherited
// dependencies use the workspace protocol.
func cargoDependency(key string, entry any) (name, rng string, optional bool) {
	name = key
	switch s := entry.(type) {
	case string:
		return name, cargoRange(s), false
	case map[string]any:
		if pkg, ok := s["package"].(string); ok && pkg != "" {
			name = pkg
		}
		optional, _ = s["optional"].(bool)
		version, _ := s["version"].(string)
		_, hasPath := s["path"]
		inherited, _ := s["workspace"].(bool)

		switch {
		case inherited:
			return name, workspace.WorkspaceProtocol + "*", optional
		case hasPath && version != "":
			return name, workspace.WorkspaceProtocol + cargoRange(version), optional
		case hasPath:
			return name, workspace.WorkspaceProtocol + "*", optional
		case version != "":
			return name, cargoRange(version), optional
		}
	}
	return name, "*", optional
}

// cargoRange converts a Cargo version requirement to npm range syntax.
// Cargo treats a bare version as a caret requirement.
func cargoRange(req string) string {
	req = strings.TrimSpace(req)
	if req == "" || req == "*" {
		return "*"
	}
	parts := strings.Split(req, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && p[0] >= '0' && p[0] <= '9' {
			p = "^" + p
		}
		parts[i] = p
	}
	return strings.Join(parts, " ")
}
