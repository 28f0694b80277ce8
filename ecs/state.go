package ecs

import (
	"maps"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/ecstore/codec"
)

// Column holds the values of one component, keyed by entity.
type Column map[EntityID]any

// State is the full content of an engine. Components holds one column per declared component
// plus the id column.
type State struct {
	Components map[string]Column `json:"components"`
	Meta       map[string]any    `json:"meta"`
}

func newState(components []string) State {
	s := State{
		Components: make(map[string]Column, len(components)+1),
		Meta:       make(map[string]any),
	}
	s.Components[IDComponent] = make(Column)
	for _, name := range components {
		s.Components[name] = make(Column)
	}
	return s
}

// clone copies the columns. Values are shared.
func (s State) clone() State {
	out := State{
		Components: make(map[string]Column, len(s.Components)),
		Meta:       maps.Clone(s.Meta),
	}
	if out.Meta == nil {
		out.Meta = make(map[string]any)
	}
	for name, col := range s.Components {
		c := maps.Clone(col)
		if c == nil {
			c = make(Column)
		}
		out.Components[name] = c
	}
	return out
}

// validateState checks that the state columns are exactly the declared components plus id, that
// every id value is true, and that no component holds a value for a dead entity.
func validateState(s State, components []string) error {
	// meta is carried by State.Meta, so a column of that name is always surplus
	want := append(slices.Clone(components), IDComponent)
	have := slices.Collect(maps.Keys(s.Components))

	var surplus, deficient []string
	for _, name := range have {
		if !slices.Contains(want, name) {
			surplus = append(surplus, name)
		}
	}
	for _, name := range want {
		if !slices.Contains(have, name) {
			deficient = append(deficient, name)
		}
	}
	if len(surplus) != 0 || len(deficient) != 0 {
		slices.Sort(surplus)
		slices.Sort(deficient)
		return eris.Wrapf(ErrStateMismatch, "+: %s; -: %s", strings.Join(surplus, ","), strings.Join(deficient, ","))
	}

	ids := s.Components[IDComponent]
	var notAlive []EntityID
	for id, v := range ids {
		if alive, ok := v.(bool); !ok || !alive {
			notAlive = append(notAlive, id)
		}
	}
	if len(notAlive) != 0 {
		slices.Sort(notAlive)
		return eris.Wrapf(ErrStateMismatch, "id of entity %d must be true, got %v", notAlive[0], ids[notAlive[0]])
	}
	for _, name := range components {
		for id := range s.Components[name] {
			if _, alive := ids[id]; !alive {
				return eris.Wrapf(ErrStateMismatch, "component %q holds a value for dead entity %d", name, id)
			}
		}
	}
	return nil
}

// liveIndex builds the sorted live entity index from the id column.
func liveIndex(ids Column) *roaring64.Bitmap {
	live := roaring64.New()
	for id := range ids {
		live.Add(uint64(id))
	}
	return live
}

// Snapshot returns a copy of the engine state. Component values are not deep copied.
func (e *Engine) Snapshot() State {
	return e.state.clone()
}

// MarshalState encodes the engine state as JSON.
func (e *Engine) MarshalState() ([]byte, error) {
	bz, err := codec.Encode(e.state)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal engine state")
	}
	return bz, nil
}

// UnmarshalState decodes a state produced by MarshalState.
func UnmarshalState(bz []byte) (State, error) {
	s, err := codec.Decode[State](bz)
	if err != nil {
		return State{}, eris.Wrap(err, "failed to unmarshal engine state")
	}
	return s, nil
}
