package prerelease

import (
	"fmt"
	"maps"
	"strings"

	"github.com/felixgeelhaar/statekit"
)

// Event names for the pre mode lifecycle.
const (
	EventEnter   statekit.EventType = "ENTER"
	EventExit    statekit.EventType = "EXIT"
	EventVersion statekit.EventType = "VERSION"
)

// State IDs for the pre mode lifecycle.
var (
	StateIDStable statekit.StateID = "stable"
	StateIDPre    statekit.StateID = statekit.StateID(ModePre)
	StateIDExit   statekit.StateID = statekit.StateID(ModeExit)
)

// Lifecycle wraps the Statekit machine driving pre mode transitions:
// stable -> pre on ENTER, pre -> exit on EXIT, exit -> stable on VERSION,
// exit -> pre on ENTER. Versioning inside pre mode stays in pre mode.
type Lifecycle struct {
	interpreter *statekit.Interpreter[struct{}]
}

// NewLifecycle builds the machine and moves it to the state matching s
// (nil means stable).
func NewLifecycle(s *State) (*Lifecycle, error) {
	machine, err := statekit.NewMachine[struct{}]("pre-mode").
		WithInitial(StateIDStable).
		State(StateIDStable).
		On(EventEnter).Target(StateIDPre).
		Done().
		State(StateIDPre).
		On(EventExit).Target(StateIDExit).
		On(EventVersion).Target(StateIDPre).
		Done().
		State(StateIDExit).
		On(EventEnter).Target(StateIDPre).
		On(EventVersion).Target(StateIDStable).
		Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pre mode machine: %w", err)
	}

	l := &Lifecycle{interpreter: statekit.NewInterpreter(machine)}
	l.interpreter.Start()

	if s == nil {
		return l, nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	replay := []statekit.EventType{EventEnter}
	if s.Mode == ModeExit {
		replay = append(replay, EventExit)
	}
	for _, ev := range replay {
		l.interpreter.Send(statekit.Event{Type: ev})
	}
	return l, nil
}

// Current returns the current lifecycle state.
func (l *Lifecycle) Current() statekit.StateID {
	return l.interpreter.State().Value
}

func (l *Lifecycle) fire(ev statekit.EventType) error {
	before := l.Current()
	l.interpreter.Send(statekit.Event{Type: ev})
	if l.Current() == before && !(before == StateIDPre && ev == EventVersion) {
		return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, ev, before)
	}
	return nil
}

// Enter returns the state for entering pre mode with tag. initialVersions is
// the current version of every package; it is only recorded when no pre
// state exists yet, so re-entering after an exit keeps the original baseline.
func Enter(current *State, tag string, initialVersions map[string]string) (*State, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("%w: empty tag", ErrInvalidState)
	}

	l, err := NewLifecycle(current)
	if err != nil {
		return nil, err
	}
	if l.Current() == StateIDPre {
		return nil, ErrAlreadyInPre
	}
	if err := l.fire(EventEnter); err != nil {
		return nil, err
	}

	if current != nil {
		next := current.Clone()
		next.Mode = ModePre
		next.Tag = tag
		return next, nil
	}

	versions := maps.Clone(initialVersions)
	if versions == nil {
		versions = map[string]string{}
	}
	return &State{
		Mode:            ModePre,
		Tag:             tag,
		InitialVersions: versions,
		Changesets:      []string{},
	}, nil
}

// Exit returns the state marking pre mode as exiting.
func Exit(current *State) (*State, error) {
	if current == nil {
		return nil, ErrNotInPre
	}
	l, err := NewLifecycle(current)
	if err != nil {
		return nil, err
	}
	if l.Current() != StateIDPre {
		return nil, ErrNotInPre
	}
	if err := l.fire(EventExit); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Mode = ModeExit
	return next, nil
}

// AfterVersion returns the state to persist once a plan computed with
// current has been applied. An exiting state is finished and yields nil.
func AfterVersion(current *State) (*State, error) {
	if current == nil {
		return nil, nil
	}
	l, err := NewLifecycle(current)
	if err != nil {
		return nil, err
	}
	if err := l.fire(EventVersion); err != nil {
		return nil, err
	}
	if l.Current() == StateIDStable {
		return nil, nil
	}
	return current.Clone(), nil
}
