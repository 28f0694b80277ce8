package queue

// Observer receives events flushed from a queue.
//
// Observers are identified by their interface value, so the handle passed to Observe must be
// comparable (a pointer, usually) and has to be kept around to Unobserve it later.
type Observer[E any] interface {
	OnEvent(event E)
}

type funcObserver[E any] struct {
	fn func(E)
}

func (o *funcObserver[E]) OnEvent(event E) {
	o.fn(event)
}

// Func wraps fn into an Observer handle. Every call returns a distinct handle.
func Func[E any](fn func(E)) Observer[E] {
	return &funcObserver[E]{fn: fn}
}

// observerSet is an insertion ordered set of observers.
type observerSet[E any] struct {
	index map[Observer[E]]int
	list  []Observer[E]
}

func newObserverSet[E any]() *observerSet[E] {
	return &observerSet[E]{index: make(map[Observer[E]]int)}
}

func (s *observerSet[E]) add(o Observer[E]) {
	if _, ok := s.index[o]; ok {
		return
	}
	s.index[o] = len(s.list)
	s.list = append(s.list, o)
}

func (s *observerSet[E]) remove(o Observer[E]) {
	i, ok := s.index[o]
	if !ok {
		return
	}
	delete(s.index, o)
	s.list = append(s.list[:i], s.list[i+1:]...)
	for j := i; j < len(s.list); j++ {
		s.index[s.list[j]] = j
	}
}

func (s *observerSet[E]) len() int {
	return len(s.list)
}

// snapshot copies the observers so that (un)registrations made while notifying do not affect
// the current pass.
func (s *observerSet[E]) snapshot() []Observer[E] {
	out := make([]Observer[E], len(s.list))
	copy(out, s.list)
	return out
}

// registry maps keys to their observer sets. A key without observers has no entry.
type registry[K comparable, E any] struct {
	sets map[K]*observerSet[E]
}

func newRegistry[K comparable, E any]() registry[K, E] {
	return registry[K, E]{sets: make(map[K]*observerSet[E])}
}

func (r registry[K, E]) observe(key K, o Observer[E]) {
	set, ok := r.sets[key]
	if !ok {
		set = newObserverSet[E]()
		r.sets[key] = set
	}
	set.add(o)
}

func (r registry[K, E]) unobserve(key K, o Observer[E]) {
	set, ok := r.sets[key]
	if !ok {
		return
	}
	set.remove(o)
	if set.len() == 0 {
		delete(r.sets, key)
	}
}

func (r registry[K, E]) has(key K) bool {
	_, ok := r.sets[key]
	return ok
}

func (r registry[K, E]) observers(key K) []Observer[E] {
	set, ok := r.sets[key]
	if !ok {
		return nil
	}
	return set.snapshot()
}
