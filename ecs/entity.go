package ecs

import (
	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/ecstore/codec"
)

// Entity is a view of one entity of an engine. It owns no data; every call reads or writes the
// engine columns and fails with ErrEntityNotFound once the entity is removed.
type Entity struct {
	engine *Engine
	id     EntityID
}

func (e *Entity) ID() EntityID {
	return e.id
}

func (e *Entity) Engine() *Engine {
	return e.engine
}

// IsValid reports whether the entity is alive.
func (e *Entity) IsValid() bool {
	return e.engine.Has(e.id)
}

func (e *Entity) checkValidity() error {
	if !e.IsValid() {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", e.id)
	}
	return nil
}

// column resolves name for a read. Metadata is not an entity column.
func (e *Entity) column(name string) (column, error) {
	if err := e.checkValidity(); err != nil {
		return column{}, err
	}
	col, err := e.engine.resolve(name)
	if err != nil {
		return column{}, err
	}
	if col.kind == metaColumn {
		return column{}, eris.Wrapf(ErrReservedComponent, "%q is not an entity component", name)
	}
	return col, nil
}

// Get returns the value of a component, nil if the entity does not have it.
func (e *Entity) Get(name string) (any, error) {
	col, err := e.column(name)
	if err != nil {
		return nil, err
	}
	return e.engine.state.Components[col.name][e.id], nil
}

func (e *Entity) Has(name string) (bool, error) {
	col, err := e.column(name)
	if err != nil {
		return false, err
	}
	_, ok := e.engine.state.Components[col.name][e.id]
	return ok, nil
}

// mutable resolves name for a write.
func (e *Entity) mutable(name string) (column, error) {
	if err := e.checkValidity(); err != nil {
		return column{}, err
	}
	col, err := e.engine.resolve(name)
	if err != nil {
		return column{}, err
	}
	if e.engine.locked {
		return column{}, eris.Wrapf(ErrEngineLocked, "cannot write %q of entity %d", name, e.id)
	}
	if col.reserved() {
		return column{}, eris.Wrapf(ErrReservedComponent, "cannot write %q", name)
	}
	return col, nil
}

// Set writes a component value.
func (e *Entity) Set(name string, value any) error {
	col, err := e.mutable(name)
	if err != nil {
		return err
	}
	values := e.engine.state.Components[col.name]
	e.engine.NotifyChange(e.id, col.name, values[e.id])
	values[e.id] = value
	return nil
}

// Remove deletes a component. Removing a component the entity does not have still reports a change.
func (e *Entity) Remove(name string) error {
	col, err := e.mutable(name)
	if err != nil {
		return err
	}
	values := e.engine.state.Components[col.name]
	e.engine.NotifyChange(e.id, col.name, values[e.id])
	delete(values, e.id)
	return nil
}

// Observe registers o for changes of this entity. The registration outlives the entity.
func (e *Entity) Observe(o EntityObserver) error {
	if err := e.checkValidity(); err != nil {
		return err
	}
	e.engine.ObserveEntity(e.id, o)
	return nil
}

func (e *Entity) Unobserve(o EntityObserver) {
	e.engine.UnobserveEntity(e.id, o)
}

// GetAs returns a component converted to T. Values that are not a T, such as the generic maps
// produced by WithStateJSON, are converted through JSON.
func GetAs[T any](e *Entity, name string) (T, error) {
	var zero T
	v, err := e.Get(name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, eris.Wrapf(ErrComponentType, "entity %d has no %q", e.id, name)
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	bz, err := codec.Encode(v)
	if err != nil {
		return zero, eris.Wrapf(ErrComponentType, "component %q: %v", name, err)
	}
	t, err := codec.DecodeStrict[T](bz)
	if err != nil {
		return zero, eris.Wrapf(ErrComponentType, "component %q: %v", name, err)
	}
	return t, nil
}
