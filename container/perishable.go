// Package container implements the lazy-invalidation containers shared by
// the mapper and the L5 index/content layers: a perishable map whose keys
// expire the moment their backing record is discarded, a factory-on-miss
// auto container for per-key nested containers, and a sliceable ordered
// index for range-queryable keydefs.
package container

import "iter"

// Perishable wraps a map[K]V plus a TestValid predicate, lazily dropping
// keys that have become invalid instead of eagerly walking the map on
// every external discard. This generalizes the teacher's perishables
// containers to a single generic map type: validity testing, expired-key
// tracking, and iterator-gated release all follow the same mixin structure
// (iters_open / expired / try_release_expired), adapted from
// PerishablesContainerMixin/PerishablesMapMixin.
type Perishable[K comparable, V any] struct {
	data      map[K]V
	testValid func(K) bool
	iterOpen  int
	expired   map[K]struct{}
}

// NewPerishable constructs an empty Perishable. testValid is called only
// against keys currently present in the map, never for prospective keys.
func NewPerishable[K comparable, V any](testValid func(K) bool) *Perishable[K, V] {
	return &Perishable[K, V]{
		data:      make(map[K]V),
		testValid: testValid,
		expired:   make(map[K]struct{}),
	}
}

// Set inserts or overwrites k's value.
func (p *Perishable[K, V]) Set(k K, v V) {
	delete(p.expired, k)
	p.data[k] = v
}

// Contains reports whether k is present and currently valid.
func (p *Perishable[K, V]) Contains(k K) bool {
	if _, ok := p.data[k]; !ok {
		return false
	}
	if p.testValid(k) {
		return true
	}
	p.markExpired(k)
	return false
}

// Get resolves k's value if present and currently valid.
func (p *Perishable[K, V]) Get(k K) (V, bool) {
	v, ok := p.data[k]
	if !ok {
		var zero V
		return zero, false
	}
	if !p.testValid(k) {
		p.markExpired(k)
		var zero V
		return zero, false
	}
	return v, true
}

// Delete removes k unconditionally.
func (p *Perishable[K, V]) Delete(k K) {
	delete(p.data, k)
	delete(p.expired, k)
}

func (p *Perishable[K, V]) markExpired(k K) {
	p.expired[k] = struct{}{}
	p.tryReleaseExpired()
}

func (p *Perishable[K, V]) tryReleaseExpired() bool {
	if p.iterOpen != 0 {
		return false
	}
	for k := range p.expired {
		delete(p.data, k)
	}
	p.expired = make(map[K]struct{})
	return true
}

// Iter yields only currently valid keys, deferring removal of any newly
// discovered expired key until every open iterator closes.
func (p *Perishable[K, V]) Iter() iter.Seq[K] {
	return func(yield func(K) bool) {
		p.iterOpen++
		defer func() {
			p.iterOpen--
			p.tryReleaseExpired()
		}()
		for k := range p.data {
			if p.testValid(k) {
				if !yield(k) {
					return
				}
			} else {
				p.expired[k] = struct{}{}
			}
		}
	}
}

// Len reports the number of currently valid keys. Like the source mixin,
// this walks the container; callers on a hot path should prefer Iter with
// an early exit where possible.
func (p *Perishable[K, V]) Len() int {
	n := 0
	for range p.Iter() {
		n++
	}
	return n
}
