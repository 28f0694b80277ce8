package queue

// SingleEvent is delivered by a Single queue. Value is the previous value of Key.
type SingleEvent[O any, K comparable] struct {
	Kind   Kind
	Key    K
	Value  any
	Engine O
}

// Single is a one dimensional queue: key -> previous value. Used where a key has no sub keys,
// such as engine metadata.
type Single[O any, K comparable] struct {
	owner     O
	kind      Kind
	queue     *pending[K, any]
	observers registry[K, SingleEvent[O, K]]
}

// NewSingle creates a queue whose events carry owner and kind.
func NewSingle[O any, K comparable](owner O, kind Kind) *Single[O, K] {
	return &Single[O, K]{
		owner:     owner,
		kind:      kind,
		queue:     newPending[K, any](),
		observers: newRegistry[K, SingleEvent[O, K]](),
	}
}

func (q *Single[O, K]) Observe(key K, o Observer[SingleEvent[O, K]]) {
	q.observers.observe(key, o)
}

func (q *Single[O, K]) Unobserve(key K, o Observer[SingleEvent[O, K]]) {
	q.observers.unobserve(key, o)
}

func (q *Single[O, K]) HasObservers(key K) bool {
	return q.observers.has(key)
}

// Push records the previous value of key unless it is unobserved or already recorded.
func (q *Single[O, K]) Push(key K, previous any) {
	if !q.observers.has(key) {
		return
	}
	if _, seen := q.queue.diffs[key]; seen {
		return
	}
	q.queue.diffs[key] = previous
	q.queue.order = append(q.queue.order, key)
}

func (q *Single[O, K]) Len() int {
	return len(q.queue.order)
}

func (q *Single[O, K]) Reset() {
	q.queue = newPending[K, any]()
}

// Notify delivers the pending events and empties the queue.
func (q *Single[O, K]) Notify() {
	if len(q.queue.order) == 0 {
		return
	}
	flushed := q.queue
	q.queue = newPending[K, any]()
	for _, key := range flushed.order {
		event := SingleEvent[O, K]{
			Kind:   q.kind,
			Key:    key,
			Value:  flushed.diffs[key],
			Engine: q.owner,
		}
		for _, o := range q.observers.observers(key) {
			o.OnEvent(event)
		}
	}
}
