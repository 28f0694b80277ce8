package ecs

import (
	"slices"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/ecstore/queue"
)

type (
	// ComponentEvent is delivered per component. Values maps each touched entity to the value it
	// held before the dispatch, nil if it had none.
	ComponentEvent = queue.Event[*Engine, string, EntityID]
	// EntityEvent is delivered per entity. Values maps each touched component to its previous value.
	EntityEvent = queue.Event[*Engine, EntityID, string]
	// MetaEvent is delivered per metadata key with the previous value.
	MetaEvent = queue.SingleEvent[*Engine, string]

	ComponentObserver = queue.Observer[ComponentEvent]
	EntityObserver    = queue.Observer[EntityEvent]
	MetaObserver      = queue.Observer[MetaEvent]
	// DispatchObserver is called once at the end of every dispatch with the dispatched action.
	DispatchObserver = queue.Observer[Action]
)

func ObserveComponentFunc(fn func(ComponentEvent)) ComponentObserver {
	return queue.Func(fn)
}

func ObserveEntityFunc(fn func(EntityEvent)) EntityObserver {
	return queue.Func(fn)
}

func ObserveMetaFunc(fn func(MetaEvent)) MetaObserver {
	return queue.Func(fn)
}

func ObserveDispatchFunc(fn func(Action)) DispatchObserver {
	return queue.Func(fn)
}

// Observe registers o for changes of component. The id component is observable and reports entity
// creation and removal.
func (e *Engine) Observe(component string, o ComponentObserver) error {
	col, err := e.resolve(component)
	if err != nil {
		return err
	}
	if col.kind == metaColumn {
		return eris.Wrap(ErrReservedComponent, "use ObserveMeta to observe metadata")
	}
	e.componentQueue.Observe(component, o)
	return nil
}

func (e *Engine) Unobserve(component string, o ComponentObserver) error {
	if _, err := e.resolve(component); err != nil {
		return err
	}
	e.componentQueue.Unobserve(component, o)
	return nil
}

// ObserveEntity registers o for changes of the entity id. The entity does not need to exist.
func (e *Engine) ObserveEntity(id EntityID, o EntityObserver) {
	e.entityQueue.Observe(id, o)
}

func (e *Engine) UnobserveEntity(id EntityID, o EntityObserver) {
	e.entityQueue.Unobserve(id, o)
}

func (e *Engine) ObserveMeta(key string, o MetaObserver) {
	e.metaQueue.Observe(key, o)
}

func (e *Engine) UnobserveMeta(key string, o MetaObserver) {
	e.metaQueue.Unobserve(key, o)
}

// ObserveDispatch registers a global observer. Registering the same observer twice has no effect.
func (e *Engine) ObserveDispatch(o DispatchObserver) {
	if slices.Contains(e.dispatchObservers, o) {
		return
	}
	e.dispatchObservers = append(e.dispatchObservers, o)
}

func (e *Engine) UnobserveDispatch(o DispatchObserver) {
	e.dispatchObservers = slices.DeleteFunc(e.dispatchObservers, func(other DispatchObserver) bool {
		return other == o
	})
}

// NotifyChange records that component of entity id is about to change from previous. It must be
// called before the write so observers receive the value as it was when the dispatch started.
func (e *Engine) NotifyChange(id EntityID, component string, previous any) {
	e.componentQueue.Push(component, id, previous)
	e.entityQueue.Push(id, component, previous)
}

// flush delivers the queued events, then calls the dispatch observers with a.
func (e *Engine) flush(a Action) {
	e.flushing = true
	defer func() { e.flushing = false }()
	e.componentQueue.Notify()
	e.entityQueue.Notify()
	e.metaQueue.Notify()
	for _, o := range slices.Clone(e.dispatchObservers) {
		o.OnEvent(a)
	}
}
