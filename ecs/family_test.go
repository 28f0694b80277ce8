package ecs_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pkg.world.dev/world-engine/assert"

	"pkg.world.dev/world-engine/ecstore/ecs"
)

func familyFixture(t *testing.T) *ecs.Engine {
	return newEngine(t, []string{"pos", "vel"}, ecs.WithState(state(
		[]ecs.EntityID{1, 2, 3, 5},
		map[string]ecs.Column{
			"pos": {1: 0, 2: 0, 5: 0},
			"vel": {1: 0, 3: 0, 5: 0},
		},
	)))
}

// checkContainment asserts that every live entity belongs to a family iff it holds every component
// of the family pattern.
func checkContainment(t *testing.T, e *ecs.Engine, families []*ecs.Family) {
	t.Helper()
	for _, f := range families {
		want := 0
		for _, id := range e.Entities() {
			matches := true
			for _, name := range f.Components() {
				has, err := e.Get(id).Has(name)
				require.NoError(t, err)
				matches = matches && has
			}
			assert.Equal(t, matches, f.Contains(id), "entity %d family %v", id, f.Components())
			if matches {
				want++
			}
		}
		assert.Equal(t, want, f.Len(), "family %v", f.Components())
	}
}

func TestFilter_Backfill(t *testing.T) {
	e := familyFixture(t)
	f, err := e.Filter("pos", "vel")
	assert.NilError(t, err)
	assert.DeepEqual(t, []ecs.EntityID{1, 5}, f.Entities())
	assert.DeepEqual(t, []string{"pos", "vel"}, f.Components())
	assert.Equal(t, 0, f.ID())
}

func TestFilter_MembershipFollowsChanges(t *testing.T) {
	e := familyFixture(t)
	both, err := e.Filter("pos", "vel")
	require.NoError(t, err)
	vel, err := e.Filter("vel")
	require.NoError(t, err)
	assert.DeepEqual(t, []ecs.EntityID{1, 3, 5}, vel.Entities())

	// entity 2 never matched either family
	assert.NilError(t, run(e, func(e *ecs.Engine) error { return e.Remove(2) }))
	assert.DeepEqual(t, []ecs.EntityID{1, 5}, both.Entities())
	assert.DeepEqual(t, []ecs.EntityID{1, 3, 5}, vel.Entities())

	create(t, e, 4, map[string]any{"vel": 1})
	assert.DeepEqual(t, []ecs.EntityID{1, 3, 5, 4}, vel.Entities())
	assert.DeepEqual(t, []ecs.EntityID{1, 5}, both.Entities())

	set(t, e, 4, "pos", 1)
	assert.DeepEqual(t, []ecs.EntityID{1, 5, 4}, both.Entities())

	assert.NilError(t, run(e, func(e *ecs.Engine) error { return e.Get(1).Remove("vel") }))
	assert.DeepEqual(t, []ecs.EntityID{5, 4}, both.Entities())
	assert.DeepEqual(t, []ecs.EntityID{3, 5, 4}, vel.Entities())

	assert.NilError(t, run(e, func(e *ecs.Engine) error { return e.Remove(5) }))
	assert.DeepEqual(t, []ecs.EntityID{4}, both.Entities())
	assert.DeepEqual(t, []ecs.EntityID{3, 4}, vel.Entities())
	checkContainment(t, e, []*ecs.Family{both, vel})
}

func TestFilter_ValueChangesKeepMembership(t *testing.T) {
	e := familyFixture(t)
	both, err := e.Filter("pos", "vel")
	require.NoError(t, err)
	count := 0
	assert.NilError(t, e.Observe("pos", ecs.ObserveComponentFunc(func(ecs.ComponentEvent) { count++ })))

	set(t, e, 1, "pos", 42)

	// a leave and rejoin would have moved entity 1 behind entity 5
	assert.DeepEqual(t, []ecs.EntityID{1, 5}, both.Entities())
	assert.Equal(t, 1, count)
}

func TestFilter_SamePatternSharesFamily(t *testing.T) {
	e := familyFixture(t)
	a, err := e.Filter("pos", "vel")
	require.NoError(t, err)
	b, err := e.Filter("vel", "pos", "vel")
	require.NoError(t, err)
	assert.Check(t, a == b)

	c, err := e.Filter("vel")
	require.NoError(t, err)
	assert.Equal(t, 1, c.ID())
	assert.Check(t, a != c)
}

func TestFilter_Errors(t *testing.T) {
	e := familyFixture(t)
	_, err := e.Filter()
	assert.ErrorIs(t, err, ecs.ErrEmptyFilter)
	_, err = e.Filter("pos", "nope")
	assert.ErrorIs(t, err, ecs.ErrUnknownComponent)
	_, err = e.Filter(ecs.IDComponent)
	assert.ErrorIs(t, err, ecs.ErrReservedComponent)
}

func TestFamily_ReturnsCopies(t *testing.T) {
	e := familyFixture(t)
	f, err := e.Filter("pos")
	require.NoError(t, err)

	entities := f.Entities()
	entities[0] = 99
	assert.DeepEqual(t, []ecs.EntityID{1, 2, 5}, f.Entities())

	pattern := f.Pattern()
	assert.Check(t, pattern.Get(0))
	assert.Check(t, !pattern.Get(1))
	pattern.Set(1)
	assert.Check(t, !f.Pattern().Get(1))
}

func TestFilter_CreatedDuringDispatch(t *testing.T) {
	e := familyFixture(t)
	var f *ecs.Family
	assert.NilError(t, run(e, func(e *ecs.Engine) error {
		if _, err := e.Create(ecs.WithID(8), ecs.WithTemplate(map[string]any{"pos": 1})); err != nil {
			return err
		}
		var err error
		f, err = e.Filter("pos")
		return err
	}))
	assert.DeepEqual(t, []ecs.EntityID{1, 2, 5, 8}, f.Entities())
	checkContainment(t, e, []*ecs.Family{f})
}

func TestFilter_RecreatedWithinOneDispatch(t *testing.T) {
	e := familyFixture(t)
	both, err := e.Filter("pos", "vel")
	require.NoError(t, err)
	pos, err := e.Filter("pos")
	require.NoError(t, err)

	assert.NilError(t, run(e, func(e *ecs.Engine) error {
		if err := e.Remove(1); err != nil {
			return err
		}
		_, err := e.Create(ecs.WithID(1), ecs.WithTemplate(map[string]any{"vel": 1}))
		return err
	}))
	assert.DeepEqual(t, []ecs.EntityID{5}, both.Entities())
	assert.DeepEqual(t, []ecs.EntityID{2, 5}, pos.Entities())
	checkContainment(t, e, []*ecs.Family{both, pos})
}

func TestFilter_ContainmentLaw(t *testing.T) {
	components := []string{"a", "b", "c", "d"}
	e := newEngine(t, components)
	var families []*ecs.Family
	for _, names := range [][]string{{"a"}, {"a", "b"}, {"b", "c", "d"}, {"d"}, {"a", "b", "c", "d"}} {
		f, err := e.Filter(names...)
		require.NoError(t, err)
		families = append(families, f)
	}

	rng := rand.New(rand.NewSource(42))
	for step := 0; step < 200; step++ {
		err := run(e, func(e *ecs.Engine) error {
			for i := 0; i < 5; i++ {
				id := ecs.EntityID(rng.Intn(12))
				name := components[rng.Intn(len(components))]
				entity := e.Get(id)
				switch {
				case entity == nil:
					template := map[string]any{}
					if rng.Intn(2) == 0 {
						template[name] = step
					}
					if _, err := e.Create(ecs.WithID(id), ecs.WithTemplate(template)); err != nil {
						return err
					}
				case rng.Intn(6) == 0:
					if err := e.Remove(id); err != nil {
						return err
					}
				case rng.Intn(2) == 0:
					if err := entity.Set(name, step); err != nil {
						return err
					}
				default:
					if err := entity.Remove(name); err != nil {
						return err
					}
				}
			}
			return nil
		})
		require.NoError(t, err)
		checkContainment(t, e, families)
	}
}
