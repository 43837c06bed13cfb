package container

import "iter"

type autoEntry[V any] struct {
	value V
	refs  int
}

// AutoContainer is a factory-on-miss map: Get creates a fresh inner value
// via factory when the key is absent. An entry is eligible for eviction
// once isEmpty(value) holds AND no handle holds it retained — generalizing
// AutoContainerMapMixin's reference-count test (sys.getrefcount) to an
// explicit Retain/Release pair, per spec.md section 4.6's guidance for
// languages without reference introspection.
type AutoContainer[K comparable, V any] struct {
	data    map[K]*autoEntry[V]
	factory func() V
	isEmpty func(V) bool

	iterOpen int
	expired  map[K]struct{}
}

// NewAutoContainer constructs an empty AutoContainer. factory produces a
// fresh inner value on a missed Get/Retain; isEmpty reports whether a
// value carries no content of its own (besides outstanding Retain holds).
func NewAutoContainer[K comparable, V any](factory func() V, isEmpty func(V) bool) *AutoContainer[K, V] {
	return &AutoContainer[K, V]{
		data:    make(map[K]*autoEntry[V]),
		factory: factory,
		isEmpty: isEmpty,
		expired: make(map[K]struct{}),
	}
}

func (a *AutoContainer[K, V]) entry(k K) *autoEntry[V] {
	e, ok := a.data[k]
	if !ok {
		e = &autoEntry[V]{value: a.factory()}
		a.data[k] = e
	}
	delete(a.expired, k)
	return e
}

// Get resolves k's value, creating it via factory on a miss.
func (a *AutoContainer[K, V]) Get(k K) V {
	return a.entry(k).value
}

// Retain resolves k's value and increments its handle refcount, keeping it
// alive across emptiness even before the caller has written anything into
// it.
func (a *AutoContainer[K, V]) Retain(k K) V {
	e := a.entry(k)
	e.refs++
	return e.value
}

// Release decrements k's handle refcount and evicts the entry if it is now
// both empty and unretained.
func (a *AutoContainer[K, V]) Release(k K) {
	e, ok := a.data[k]
	if !ok {
		return
	}
	if e.refs > 0 {
		e.refs--
	}
	a.maybeExpire(k, e)
}

func (a *AutoContainer[K, V]) maybeExpire(k K, e *autoEntry[V]) {
	if e.refs == 0 && a.isEmpty(e.value) {
		a.expired[k] = struct{}{}
		a.tryReleaseExpired()
	}
}

func (a *AutoContainer[K, V]) tryReleaseExpired() bool {
	if a.iterOpen != 0 {
		return false
	}
	for k := range a.expired {
		delete(a.data, k)
	}
	a.expired = make(map[K]struct{})
	return true
}

// Contains reports whether k is present and either non-empty or retained.
func (a *AutoContainer[K, V]) Contains(k K) bool {
	e, ok := a.data[k]
	if !ok {
		return false
	}
	if e.refs > 0 || !a.isEmpty(e.value) {
		return true
	}
	a.expired[k] = struct{}{}
	a.tryReleaseExpired()
	return false
}

// Iter yields (key, value) pairs currently valid by Contains' test.
func (a *AutoContainer[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		a.iterOpen++
		defer func() {
			a.iterOpen--
			a.tryReleaseExpired()
		}()
		for k, e := range a.data {
			if e.refs > 0 || !a.isEmpty(e.value) {
				if !yield(k, e.value) {
					return
				}
			} else {
				a.expired[k] = struct{}{}
			}
		}
	}
}
