package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/relicta-tech/changeplan/internal/domain/workspace"
)

// NPMManifestFile is the npm package manifest name.
const NPMManifestFile = "package.json"

type packageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Private              bool              `json:"private"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

func parseNPM(data []byte) (workspace.Package, error) {
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return workspace.Package{}, fmt.Errorf("parse %s: %w", NPMManifestFile, err)
	}

	return workspace.Package{
		Name:    pj.Name,
		Version: pj.Version,
		Type:    workspace.PackageTypeNPM,
		Private: pj.Private,
		Manifest: workspace.Manifest{
			Dependencies:         pj.Dependencies,
			DevDependencies:      pj.DevDependencies,
			PeerDependencies:     pj.PeerDependencies,
			OptionalDependencies: pj.OptionalDependencies,
		},
	}, nil
}
