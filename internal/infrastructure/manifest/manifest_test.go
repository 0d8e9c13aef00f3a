package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

func writeManifest(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseNPM(t *testing.T) {
	pkg, err := parseNPM([]byte(`{
		"name": "@acme/ui",
		"version": "1.2.3",
		"private": true,
		"dependencies": {"@acme/core": "workspace:^1.0.0", "react": "^18.0.0"},
		"devDependencies": {"@acme/test": "*"},
		"peerDependencies": {"@acme/theme": "^2.0.0"},
		"optionalDependencies": {"@acme/icons": "~1.1.0"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "@acme/ui", pkg.Name)
	assert.Equal(t, "1.2.3", pkg.Version)
	assert.True(t, pkg.Private)
	assert.Equal(t, workspace.PackageTypeNPM, pkg.Type)
	assert.Equal(t, "workspace:^1.0.0", pkg.Manifest.Dependencies["@acme/core"])
	assert.Equal(t, "*", pkg.Manifest.DevDependencies["@acme/test"])
	assert.Equal(t, "^2.0.0", pkg.Manifest.PeerDependencies["@acme/theme"])
	assert.Equal(t, "~1.1.0", pkg.Manifest.OptionalDependencies["@acme/icons"])

	_, err = parseNPM([]byte(`{"name": `))
	assert.Error(t, err)
}

func TestParseCargo(t *testing.T) {
	pkg, err := parseCargo([]byte(`
[package]
name = "engine"
version = "0.4.1"
publish = false

[dependencies]
serde = "1.0"
core = { path = "../core" }
macros = { path = "../macros", version = "0.2" }
shared = { workspace = true }
renamed = { package = "real-name", version = ">=1.2, <2" }
extra = { version = "3", optional = true }

[dev-dependencies]
testkit = { path = "../testkit" }

[build-dependencies]
gen = "0.1.0"
`))
	require.NoError(t, err)

	assert.Equal(t, "engine", pkg.Name)
	assert.Equal(t, "0.4.1", pkg.Version)
	assert.True(t, pkg.Private)
	assert.Equal(t, workspace.PackageTypeCargo, pkg.Type)

	assert.Equal(t, map[string]string{
		"serde":     "^1.0",
		"core":      "workspace:*",
		"macros":    "workspace:^0.2",
		"shared":    "workspace:*",
		"real-name": ">=1.2 <2",
	}, pkg.Manifest.Dependencies)
	assert.Equal(t, map[string]string{"extra": "^3"}, pkg.Manifest.OptionalDependencies)
	assert.Equal(t, map[string]string{
		"testkit": "workspace:*",
		"gen":     "^0.1.0",
	}, pkg.Manifest.DevDependencies)
}

func TestParseCargo_InheritedVersion(t *testing.T) {
	pkg, err := parseCargo([]byte(`
[package]
name = "member"
version.workspace = true
`))
	require.NoError(t, err)
	assert.Equal(t, "member", pkg.Name)
	assert.Empty(t, pkg.Version)
	assert.False(t, pkg.Private)
}

func TestCargoRange(t *testing.T) {
	tests := map[string]string{
		"":          "*",
		"*":         "*",
		"1.2.3":     "^1.2.3",
		"=1.2.3":    "=1.2.3",
		"~1.2":      "~1.2",
		">=1, <1.5": ">=1 <1.5",
	}
	for in, want := range tests {
		assert.Equal(t, want, cargoRange(in), "cargoRange(%q)", in)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "package.json", `{"name": "monorepo-root", "version": "0.0.0", "private": true}`)
	writeManifest(t, root, "packages/ui/package.json", `{"name": "ui", "version": "2.0.0", "dependencies": {"core": "workspace:*"}}`)
	writeManifest(t, root, "packages/core/package.json", `{"name": "core", "version": "1.0.0"}`)
	writeManifest(t, root, "packages/draft/package.json", `{"name": "draft"}`)
	writeManifest(t, root, "packages/empty/README.md", `nothing here`)
	writeManifest(t, root, "packages/legacy/package.json", `{"name": "legacy", "version": "0.1.0"}`)
	writeManifest(t, root, "crates/engine/Cargo.toml", "[package]\nname = \"engine\"\nversion = \"0.3.0\"\n")
	writeManifest(t, root, "packages/notes.txt", `not a directory`)

	d := NewDiscoverer(nil)
	pkgs, err := d.Discover(context.Background(), root, workspace.DiscoverOptions{
		Paths:        []string{"packages/*", "crates/*"},
		ExcludePaths: []string{"packages/legacy"},
	})
	require.NoError(t, err)

	names := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"core", "engine", "ui"}, names)
	assert.Equal(t, "packages/ui", pkgs[2].Dir)
	assert.Equal(t, workspace.PackageTypeCargo, pkgs[1].Type)

	withRoot, err := d.Load(context.Background(), root, workspace.DiscoverOptions{
		Paths:       []string{"packages/*"},
		IncludeRoot: true,
	})
	require.NoError(t, err)
	assert.True(t, withRoot.Has("monorepo-root"))
	rootPkg, _ := withRoot.Get("monorepo-root")
	assert.Equal(t, ".", rootPkg.Dir)
}

func TestDiscover_DuplicateNames(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "packages/a/package.json", `{"name": "same", "version": "1.0.0"}`)
	writeManifest(t, root, "packages/b/package.json", `{"name": "same", "version": "2.0.0"}`)

	_, err := NewDiscoverer(nil).Discover(context.Background(), root, workspace.DiscoverOptions{
		Paths: []string{"packages/*"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, workspace.ErrDuplicatePackage)
	assert.True(t, cperrors.IsKind(err, cperrors.KindValidation))
}

func TestDiscover_InvalidManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "packages/a/package.json", `{"name": `)

	_, err := NewDiscoverer(nil).Discover(context.Background(), root, workspace.DiscoverOptions{
		Paths: []string{"packages/*"},
	})
	require.Error(t, err)
	assert.True(t, cperrors.IsKind(err, cperrors.KindValidation))
}

func TestDiscover_BadPattern(t *testing.T) {
	_, err := NewDiscoverer(nil).Discover(context.Background(), t.TempDir(), workspace.DiscoverOptions{
		Paths: []string{"packages/["},
	})
	require.Error(t, err)
}

func TestLoad_InvalidVersion(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "packages/a/package.json", `{"name": "a", "version": "latest"}`)

	_, err := NewDiscoverer(nil).Load(context.Background(), root, workspace.DiscoverOptions{
		Paths: []string{"packages/*"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, workspace.ErrInvalidPackage)
}
