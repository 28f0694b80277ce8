package ecs

import (
	"slices"

	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/ecstore/bitset"
	"pkg.world.dev/world-engine/ecstore/log"
)

// Family is the set of entities holding every component of its pattern. Membership is updated when
// the engine delivers the changes of a dispatch.
type Family struct {
	id         int
	pattern    *bitset.BitSet
	components []string
	entities   []EntityID
}

// ID is the position of the family in creation order.
func (f *Family) ID() int {
	return f.id
}

// Pattern returns a copy of the required component bits, indexed by declaration order.
func (f *Family) Pattern() *bitset.BitSet {
	return bitset.Clone(f.pattern)
}

// Components returns the required component names in declaration order.
func (f *Family) Components() []string {
	return slices.Clone(f.components)
}

// Entities returns the members in the order they joined.
func (f *Family) Entities() []EntityID {
	return slices.Clone(f.entities)
}

func (f *Family) Len() int {
	return len(f.entities)
}

func (f *Family) Contains(id EntityID) bool {
	return slices.Contains(f.entities, id)
}

func (f *Family) add(id EntityID) {
	f.entities = append(f.entities, id)
}

func (f *Family) remove(id EntityID) {
	if i := slices.Index(f.entities, id); i >= 0 {
		f.entities = slices.Delete(f.entities, i, i+1)
	}
}

// familyMatcher keeps every family up to date. It tracks, per live entity, the components it holds
// and the families it belongs to.
type familyMatcher struct {
	engine           *Engine
	families         []*Family
	entityComponents map[EntityID]*bitset.BitSet
	entityFamilies   map[EntityID]*bitset.BitSet
	observer         ComponentObserver
}

// newFamilyMatcher tracks every live entity and subscribes to the id column and every component.
func newFamilyMatcher(e *Engine) *familyMatcher {
	m := &familyMatcher{
		engine:           e,
		entityComponents: make(map[EntityID]*bitset.BitSet),
		entityFamilies:   make(map[EntityID]*bitset.BitSet),
	}
	for _, id := range e.Entities() {
		m.entityComponents[id] = m.componentBits(id)
		m.entityFamilies[id] = bitset.New(0)
	}
	m.observer = ObserveComponentFunc(m.onEvent)
	e.componentQueue.Observe(IDComponent, m.observer)
	for _, name := range e.componentNames {
		e.componentQueue.Observe(name, m.observer)
	}
	return m
}

func (m *familyMatcher) componentBits(id EntityID) *bitset.BitSet {
	bits := bitset.New(len(m.engine.componentNames))
	for pos := range m.engine.componentNames {
		if m.engine.has(id, pos) {
			bits.Set(pos)
		}
	}
	return bits
}

// get returns the family for the components at positions, creating and backfilling it if needed.
func (m *familyMatcher) get(positions []int) *Family {
	pattern := bitset.New(len(m.engine.componentNames))
	for _, pos := range positions {
		pattern.Set(pos)
	}
	for _, f := range m.families {
		if f.pattern.Equals(pattern) {
			return f
		}
	}

	f := &Family{id: len(m.families), pattern: pattern}
	for pos, name := range m.engine.componentNames {
		if pattern.Get(pos) {
			f.components = append(f.components, name)
		}
	}
	m.families = append(m.families, f)

	for _, id := range m.engine.Entities() {
		components, tracked := m.entityComponents[id]
		if !tracked {
			// created during the current dispatch; its event has not been delivered yet
			m.track(id)
			continue
		}
		if components.Contains(f.pattern) {
			m.entityFamilies[id].Set(f.id)
			f.add(id)
		}
	}
	log.Family(m.engine.logger, zerolog.DebugLevel, f.id, f.components, f.Len())
	return f
}

func (m *familyMatcher) onEvent(event ComponentEvent) {
	pos := -1
	if event.Key != IDComponent {
		pos = m.engine.componentIndex[event.Key]
	}
	ids := make([]EntityID, 0, len(event.Values))
	for id := range event.Values {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		alive := m.engine.Has(id)
		components, tracked := m.entityComponents[id]
		switch {
		case !alive && tracked:
			m.untrack(id)
		case !alive:
		case !tracked || pos < 0:
			m.track(id)
		default:
			has := m.engine.has(id, pos)
			if components.Get(pos) == has {
				continue
			}
			components.SetTo(pos, has)
			m.updateEntity(id)
		}
	}
}

// track rebuilds the component bits of a live entity from the columns and re-evaluates it.
func (m *familyMatcher) track(id EntityID) {
	m.entityComponents[id] = m.componentBits(id)
	if _, ok := m.entityFamilies[id]; !ok {
		m.entityFamilies[id] = bitset.New(len(m.families))
	}
	m.updateEntity(id)
}

// untrack drops a removed entity from every family it belongs to.
func (m *familyMatcher) untrack(id EntityID) {
	memberships := m.entityFamilies[id]
	for _, f := range m.families {
		if memberships.Get(f.id) {
			f.remove(id)
		}
	}
	delete(m.entityComponents, id)
	delete(m.entityFamilies, id)
}

// updateEntity compares every family, in creation order, against the component bits of id and
// applies the membership changes.
func (m *familyMatcher) updateEntity(id EntityID) {
	components := m.entityComponents[id]
	memberships := m.entityFamilies[id]
	for _, f := range m.families {
		current := components.Contains(f.pattern)
		if current == memberships.Get(f.id) {
			continue
		}
		memberships.SetTo(f.id, current)
		if current {
			f.add(id)
		} else {
			f.remove(id)
		}
	}
}
