package releaseplan

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
	"github.com/relicta-tech/changeplan/internal/domain/workspace"
	cperrors "github.com/relicta-tech/changeplan/internal/errors"
)

func TestSnapshotSuffix(t *testing.T) {
	millis := strconv.FormatInt(fixedNow.UnixMilli(), 10)

	tests := []struct {
		name     string
		template string
		params   SnapshotParams
		want     string
		wantErr  bool
	}{
		{"default with tag", "", SnapshotParams{Tag: "canary"}, "canary-20240102030405", false},
		{"default without tag", "", SnapshotParams{}, "20240102030405", false},
		{"default ignores commit", "", SnapshotParams{Commit: "abc123"}, "20240102030405", false},
		{"tag and commit", "{tag}-{commit}", SnapshotParams{Tag: "canary", Commit: "abc123"}, "canary-abc123", false},
		{"repeated placeholder", "{commit}.{commit}", SnapshotParams{Commit: "abc"}, "abc.abc", false},
		{"timestamp", "t{timestamp}", SnapshotParams{}, "t" + millis, false},
		{"datetime and tag", "{datetime}-{tag}", SnapshotParams{Tag: "dev"}, "20240102030405-dev", false},
		{"no placeholders", "static", SnapshotParams{}, "static", false},
		{"tag missing from template", "{commit}", SnapshotParams{Tag: "canary", Commit: "abc"}, "", true},
		{"commit without value", "{tag}-{commit}", SnapshotParams{Tag: "canary"}, "", true},
		{"tag placeholder without value", "{tag}", SnapshotParams{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SnapshotSuffix(tt.template, tt.params, fixedNow)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrSnapshotTemplate)
				assert.True(t, cperrors.IsKind(err, cperrors.KindTemplate))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotSuffix_UsesUTC(t *testing.T) {
	loc := fixedNow.In(fixedNowZone())
	got, err := SnapshotSuffix("{datetime}", SnapshotParams{}, loc)
	require.NoError(t, err)
	assert.Equal(t, "20240102030405", got)
}

func TestAssemble_Snapshot(t *testing.T) {
	pkgs := mustPackages(t,
		dependsOn(newPkg("a", "1.0.0"), workspace.DependencyDev, "b", "^1.0.0"),
		newPkg("b", "1.0.0"),
	)
	cs := []changes.Changeset{changeset("cs1", "b", "major")}

	tests := []struct {
		name   string
		cfg    SnapshotConfig
		params SnapshotParams
		want   map[string]string
	}{
		{
			name:   "zero base",
			params: SnapshotParams{Tag: "canary"},
			want: map[string]string{
				"a": "none 1.0.0->1.0.0",
				"b": "major 1.0.0->0.0.0-canary-20240102030405",
			},
		},
		{
			name:   "calculated base with template",
			cfg:    SnapshotConfig{UseCalculatedVersion: true, PrereleaseTemplate: "{tag}-{commit}"},
			params: SnapshotParams{Tag: "canary", Commit: "abc123"},
			want: map[string]string{
				"a": "none 1.0.0->1.0.0",
				"b": "major 1.0.0->2.0.0-canary-abc123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := tt.params
			plan, err := Assemble(cs, pkgs, Config{Snapshot: tt.cfg}, nil, &params, WithClock(fixedClock))
			require.NoError(t, err)
			assert.Equal(t, tt.want, summary(plan))
		})
	}
}
