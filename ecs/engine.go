// Package ecs is an in-memory entity component store.
//
// All mutation happens inside the systems of a dispatch. Between dispatches the engine is locked
// and every mutating call fails with ErrEngineLocked. Changes made during a dispatch are coalesced
// per key and delivered to observers once the engine is locked again, each carrying the value the
// key held when the dispatch started.
package ecs

import (
	"context"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"pkg.world.dev/world-engine/ecstore/log"
	"pkg.world.dev/world-engine/ecstore/queue"
)

// EntityID identifies an entity. Ids are never reused while the entity is alive.
type EntityID uint64

type Engine struct {
	// componentNames is the declared component list; positions are used as bit indexes.
	componentNames []string
	componentIndex map[string]int

	state State
	// live indexes the keys of the id column.
	live   *roaring64.Bitmap
	locked bool
	// flushing is set while queued changes are delivered to observers.
	flushing bool

	systems       []systemType
	currentSystem string
	middlewares   []Middleware

	componentQueue    *queue.Multi[*Engine, string, EntityID]
	entityQueue       *queue.Multi[*Engine, EntityID, string]
	metaQueue         *queue.Single[*Engine, string]
	dispatchObservers []DispatchObserver

	// families is created by the first Filter call.
	families *familyMatcher

	logger       *zerolog.Logger
	systemLogger *zerolog.Logger
	tracer       trace.Tracer
	stateDiff    bool

	initialState *State
	optionErr    error
}

var _ log.Loggable = (*Engine)(nil)

// New creates an engine with the given components and dispatches ActionInit.
func New(components []string, opts ...Option) (*Engine, error) {
	componentIndex := make(map[string]int, len(components))
	for i, name := range components {
		if isReserved(name) {
			return nil, eris.Wrapf(ErrReservedComponent, "cannot declare component %q", name)
		}
		if _, ok := componentIndex[name]; ok {
			return nil, eris.Wrapf(ErrDuplicateComponent, "component %q", name)
		}
		componentIndex[name] = i
	}

	logger := zlog.Logger
	e := &Engine{
		componentNames: slices.Clone(components),
		componentIndex: componentIndex,
		locked:         true,
		systems:        make([]systemType, 0),
		currentSystem:  noActiveSystemName,
		logger:         &logger,
		tracer:         otel.Tracer("ecstore"),
	}
	e.componentQueue = queue.NewMulti[*Engine, string, EntityID](e, queue.KindComponent)
	e.entityQueue = queue.NewMulti[*Engine, EntityID, string](e, queue.KindEntity)
	e.metaQueue = queue.NewSingle[*Engine, string](e, queue.KindMeta)

	for _, opt := range opts {
		opt(e)
	}
	if e.optionErr != nil {
		return nil, e.optionErr
	}

	if e.initialState != nil {
		if err := validateState(*e.initialState, components); err != nil {
			return nil, err
		}
		e.state = *e.initialState
		e.initialState = nil
		for name, col := range e.state.Components {
			if col == nil {
				e.state.Components[name] = make(Column)
			}
		}
		if e.state.Meta == nil {
			e.state.Meta = make(map[string]any)
		}
	} else {
		e.state = newState(components)
	}
	e.live = liveIndex(e.state.Components[IDComponent])

	log.Components(e.logger, e, zerolog.DebugLevel)
	log.Systems(e.logger, e, zerolog.DebugLevel)

	if err := e.Dispatch(context.Background(), Action{Type: ActionInit}); err != nil {
		return nil, eris.Wrap(err, "failed to dispatch init action")
	}
	return e, nil
}

func (e *Engine) failOption(err error) {
	if e.optionErr == nil {
		e.optionErr = err
	}
}

// Locked reports whether mutation is currently refused. The engine is only unlocked while its
// systems run.
func (e *Engine) Locked() bool {
	return e.locked
}

// Components returns the declared component names in declaration order.
func (e *Engine) Components() []string {
	return slices.Clone(e.componentNames)
}

// Logger returns the engine logger. While a system runs it carries the system name.
func (e *Engine) Logger() *zerolog.Logger {
	if e.systemLogger != nil {
		return e.systemLogger
	}
	return e.logger
}

type createOptions struct {
	id       *EntityID
	template map[string]any
}

type CreateOption func(*createOptions)

// WithID creates the entity with an explicit id instead of the next free one.
func WithID(id EntityID) CreateOption {
	return func(o *createOptions) {
		o.id = &id
	}
}

// WithTemplate sets the initial components of the entity.
func WithTemplate(template map[string]any) CreateOption {
	return func(o *createOptions) {
		o.template = template
	}
}

// Create adds an entity. Template components are applied in name order, each producing its own
// change event.
func (e *Engine) Create(opts ...CreateOption) (*Entity, error) {
	if e.locked {
		return nil, eris.Wrap(ErrEngineLocked, "cannot create entity")
	}
	o := createOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	names := slices.Sorted(maps.Keys(o.template))
	for _, name := range names {
		col, err := e.resolve(name)
		if err != nil {
			return nil, eris.Wrap(err, "invalid template")
		}
		if col.reserved() {
			return nil, eris.Wrapf(ErrReservedComponent, "template cannot set %q", name)
		}
	}

	var id EntityID
	if o.id != nil {
		id = *o.id
		if e.Has(id) {
			return nil, eris.Wrapf(ErrEntityExists, "entity %d", id)
		}
	} else {
		id = e.nextID()
	}
	e.advanceNextID(id)

	e.NotifyChange(id, IDComponent, nil)
	e.state.Components[IDComponent][id] = true
	e.live.Add(uint64(id))

	entity := &Entity{engine: e, id: id}
	for _, name := range names {
		if err := entity.Set(name, o.template[name]); err != nil {
			return nil, err
		}
	}
	log.Entity(e.Logger(), zerolog.DebugLevel, uint64(id), names)
	return entity, nil
}

// Remove deletes an entity and every component it holds. Each deleted value is reported with its
// previous value, the id column last.
func (e *Engine) Remove(id EntityID) error {
	if e.locked {
		return eris.Wrap(ErrEngineLocked, "cannot remove entity")
	}
	if !e.Has(id) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	for _, name := range e.componentNames {
		col := e.state.Components[name]
		if previous, ok := col[id]; ok {
			e.NotifyChange(id, name, previous)
			delete(col, id)
		}
	}
	ids := e.state.Components[IDComponent]
	e.NotifyChange(id, IDComponent, ids[id])
	delete(ids, id)
	e.live.Remove(uint64(id))

	e.Logger().Debug().Uint64("entity_id", uint64(id)).Msg("removed")
	return nil
}

func (e *Engine) RemoveEntity(entity *Entity) error {
	if entity == nil {
		return eris.Wrap(ErrEntityNotFound, "nil entity")
	}
	return e.Remove(entity.id)
}

// Get returns a view of the entity, or nil if it is not alive.
func (e *Engine) Get(id EntityID) *Entity {
	if !e.Has(id) {
		return nil
	}
	return &Entity{engine: e, id: id}
}

func (e *Engine) Has(id EntityID) bool {
	return e.live.Contains(uint64(id))
}

// Entities returns the live entity ids in ascending order.
func (e *Engine) Entities() []EntityID {
	ids := make([]EntityID, 0, e.live.GetCardinality())
	it := e.live.Iterator()
	for it.HasNext() {
		ids = append(ids, EntityID(it.Next()))
	}
	return ids
}

// nextID returns the first free id at or after the stored next id.
func (e *Engine) nextID() EntityID {
	next := e.storedNextID()
	for e.live.Contains(uint64(next)) {
		next++
	}
	return next
}

// storedNextID reads the next id from the metadata. States without it, or decoded from JSON with a
// foreign numeric type, fall back to one past the highest live id.
func (e *Engine) storedNextID() EntityID {
	switch n := e.state.Meta[nextIDMetaKey].(type) {
	case EntityID:
		return n
	case uint64:
		return EntityID(n)
	case int:
		return EntityID(n)
	case float64:
		return EntityID(n)
	}
	if e.live.IsEmpty() {
		return 0
	}
	return EntityID(e.live.Maximum() + 1)
}

func (e *Engine) advanceNextID(id EntityID) {
	if id < e.storedNextID() {
		return
	}
	e.writeMeta(nextIDMetaKey, id+1)
}

// SetMeta stores engine metadata.
func (e *Engine) SetMeta(key string, value any) error {
	if e.locked {
		return eris.Wrapf(ErrEngineLocked, "cannot set meta %q", key)
	}
	e.writeMeta(key, value)
	return nil
}

func (e *Engine) RemoveMeta(key string) error {
	if e.locked {
		return eris.Wrapf(ErrEngineLocked, "cannot remove meta %q", key)
	}
	e.metaQueue.Push(key, e.state.Meta[key])
	delete(e.state.Meta, key)
	return nil
}

func (e *Engine) GetMeta(key string) (any, bool) {
	v, ok := e.state.Meta[key]
	return v, ok
}

func (e *Engine) writeMeta(key string, value any) {
	e.metaQueue.Push(key, e.state.Meta[key])
	e.state.Meta[key] = value
}

// Filter returns the family of entities holding every named component. Equal sets of names share a
// family. The family stays up to date for the lifetime of the engine.
func (e *Engine) Filter(names ...string) (*Family, error) {
	if len(names) == 0 {
		return nil, ErrEmptyFilter
	}
	positions := make([]int, 0, len(names))
	for _, name := range names {
		col, err := e.resolve(name)
		if err != nil {
			return nil, err
		}
		if col.reserved() {
			return nil, eris.Wrapf(ErrReservedComponent, "cannot filter on %q", name)
		}
		positions = append(positions, col.pos)
	}
	if e.families == nil {
		e.families = newFamilyMatcher(e)
	}
	return e.families.get(positions), nil
}

// has reports whether entity id holds a value for the component at pos.
func (e *Engine) has(id EntityID, pos int) bool {
	_, ok := e.state.Components[e.componentNames[pos]][id]
	return ok
}
