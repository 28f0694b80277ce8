// Package queue buffers change notifications until the end of a dispatch.
//
// A queue records, for every observed key, the value a sub key had before it was first touched
// in the current cycle. Later pushes for the same pair are dropped so observers see the state as
// it was when the cycle started. Notify delivers one event per key and starts a new cycle.
//
// Keys without observers are never buffered.
package queue

// Kind tags the events delivered by a queue.
type Kind string

const (
	KindComponent Kind = "component"
	KindEntity    Kind = "entity"
	KindMeta      Kind = "meta"
)

// Event is delivered by a Multi queue. Values maps every touched sub key to its previous value.
type Event[O any, K, S comparable] struct {
	Kind   Kind
	Key    K
	Values map[S]any
	Engine O
}

// pending keeps the diffs of one cycle along with the order their keys were first pushed in.
type pending[K comparable, V any] struct {
	order []K
	diffs map[K]V
}

func newPending[K comparable, V any]() *pending[K, V] {
	return &pending[K, V]{diffs: make(map[K]V)}
}

// Multi is a two dimensional queue: key -> (sub key -> previous value).
type Multi[O any, K, S comparable] struct {
	owner     O
	kind      Kind
	queue     *pending[K, map[S]any]
	observers registry[K, Event[O, K, S]]
}

// NewMulti creates a queue whose events carry owner and kind.
func NewMulti[O any, K, S comparable](owner O, kind Kind) *Multi[O, K, S] {
	return &Multi[O, K, S]{
		owner:     owner,
		kind:      kind,
		queue:     newPending[K, map[S]any](),
		observers: newRegistry[K, Event[O, K, S]](),
	}
}

// Observe registers o for key. Registering the same observer twice has no effect.
func (q *Multi[O, K, S]) Observe(key K, o Observer[Event[O, K, S]]) {
	q.observers.observe(key, o)
}

// Unobserve removes o from key. Unknown observers are ignored.
func (q *Multi[O, K, S]) Unobserve(key K, o Observer[Event[O, K, S]]) {
	q.observers.unobserve(key, o)
}

// HasObservers reports whether anything is observing key.
func (q *Multi[O, K, S]) HasObservers(key K) bool {
	return q.observers.has(key)
}

// Push records the previous value of sub under key, unless nobody observes key or the pair was
// already recorded this cycle.
func (q *Multi[O, K, S]) Push(key K, sub S, previous any) {
	if !q.observers.has(key) {
		return
	}
	diff, ok := q.queue.diffs[key]
	if !ok {
		diff = make(map[S]any)
		q.queue.diffs[key] = diff
		q.queue.order = append(q.queue.order, key)
	}
	if _, seen := diff[sub]; seen {
		return
	}
	diff[sub] = previous
}

// Len returns the number of keys waiting to be notified.
func (q *Multi[O, K, S]) Len() int {
	return len(q.queue.order)
}

// Reset drops every pending diff without notifying.
func (q *Multi[O, K, S]) Reset() {
	q.queue = newPending[K, map[S]any]()
}

// Notify delivers one event per pending key to the observers of that key and empties the queue.
// Anything pushed by an observer while notifying is kept for the next call.
func (q *Multi[O, K, S]) Notify() {
	if len(q.queue.order) == 0 {
		return
	}
	flushed := q.queue
	q.queue = newPending[K, map[S]any]()
	for _, key := range flushed.order {
		event := Event[O, K, S]{
			Kind:   q.kind,
			Key:    key,
			Values: flushed.diffs[key],
			Engine: q.owner,
		}
		for _, o := range q.observers.observers(key) {
			o.OnEvent(event)
		}
	}
}
