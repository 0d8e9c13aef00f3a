package prerelease

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestState_Validate(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		wantErr bool
	}{
		{"pre", State{Mode: ModePre, Tag: "beta"}, false},
		{"exit", State{Mode: ModeExit, Tag: "rc"}, false},
		{"unknown mode", State{Mode: "stable", Tag: "beta"}, true},
		{"empty tag", State{Mode: ModePre}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidState) {
				t.Errorf("Validate() error = %v, want ErrInvalidState", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestState_Clone(t *testing.T) {
	var nilState *State
	if nilState.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}

	s := &State{Mode: ModePre, Tag: "beta", InitialVersions: map[string]string{"a": "1.0.0"}, Changesets: []string{"x"}}
	c := s.Clone()
	c.InitialVersions["a"] = "2.0.0"
	c.Changesets[0] = "y"
	if s.InitialVersions["a"] != "1.0.0" || s.Changesets[0] != "x" {
		t.Error("Clone() shares storage with the original")
	}

	empty := (&State{Mode: ModePre, Tag: "beta"}).Clone()
	if empty.InitialVersions == nil || empty.Changesets == nil {
		t.Error("Clone() should normalize nil collections")
	}
}

func TestState_JSON(t *testing.T) {
	raw := `{"mode":"pre","tag":"next","initialVersions":{"pkg-a":"1.0.0"},"changesets":["brave-lions"]}`

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.Mode != ModePre || s.Tag != "next" || s.InitialVersions["pkg-a"] != "1.0.0" {
		t.Errorf("Unmarshal() = %+v", s)
	}
	if !s.Consumed("brave-lions") || s.Consumed("other") {
		t.Error("Consumed() mismatch")
	}
}

func TestInfo(t *testing.T) {
	info := &Info{
		State:    &State{Mode: ModeExit, Tag: "beta"},
		Counters: map[string]int{"pkg-a": 3},
	}
	if info.Counter("pkg-a") != 3 || info.Counter("pkg-b") != 0 {
		t.Errorf("Counter() mismatch: %v", info.Counters)
	}
	if !info.Exiting() {
		t.Error("Exiting() = false for exit mode")
	}
}
