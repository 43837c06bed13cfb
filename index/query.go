package index

import (
	"fmt"
	"iter"

	"arf/arferr"
	"arf/mapper"
)

// Queryable is a source of id-sorted id streams resolvable to UnitInfo,
// bound by a Query. Both Mapper (via MapperQueryable) and ARFMapperIndex
// satisfy it.
type Queryable interface {
	IDs() iter.Seq[uint64]
	Resolve(id uint64) (*mapper.UnitInfo, error)
}

// MapperQueryable adapts a Mapper to Queryable, iterating every mapped id
// in ascending order.
type MapperQueryable struct {
	M *mapper.Mapper
}

func (q MapperQueryable) IDs() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for id, _ := range q.M.IterUnits(0) {
			if !yield(id) {
				return
			}
		}
	}
}

func (q MapperQueryable) Resolve(id uint64) (*mapper.UnitInfo, error) {
	return q.M.Get(id)
}

// Query is a pipeline over a Queryable's id stream, per spec.md section
// 4.7. Every op is lazy; nothing runs until a terminal op consumes the
// stream.
type Query struct {
	q   Queryable
	ids iter.Seq[uint64]
}

// NewQuery starts a Query over every id q currently exposes.
func NewQuery(q Queryable) *Query {
	return &Query{q: q, ids: q.IDs()}
}

// FilterIDs keeps only ids for which f returns true.
func (q *Query) FilterIDs(f func(uint64) bool) *Query {
	prev := q.ids
	return &Query{q: q.q, ids: func(yield func(uint64) bool) {
		for id := range prev {
			if f(id) {
				if !yield(id) {
					return
				}
			}
		}
	}}
}

// Join returns the sorted-merge intersection of q and other. Both streams
// must already be id-sorted.
func (q *Query) Join(other *Query) *Query {
	return &Query{q: q.q, ids: intersectSorted(q.ids, other.ids)}
}

// Merge returns the sorted-merge union (de-duplicated) of q and others.
func (q *Query) Merge(others ...*Query) *Query {
	streams := make([]iter.Seq[uint64], 0, len(others)+1)
	streams = append(streams, q.ids)
	for _, o := range others {
		streams = append(streams, o.ids)
	}
	return &Query{q: q.q, ids: mergeIDStreams(streams, true)}
}

// One returns the single matching id, failing if the query matches zero or
// more than one result.
func (q *Query) One() (uint64, error) {
	var found uint64
	count := 0
	for id := range q.ids {
		if count == 0 {
			found = id
		}
		count++
		if count > 1 {
			break
		}
	}
	if count != 1 {
		return 0, fmt.Errorf("%w: query matched %d results, want exactly 1", arferr.ErrLookup, count)
	}
	return found, nil
}

// Exists reports whether the query matches at least one id.
func (q *Query) Exists() bool {
	for range q.ids {
		return true
	}
	return false
}

// Count consumes the query and reports how many ids matched.
func (q *Query) Count() int {
	n := 0
	for range q.ids {
		n++
	}
	return n
}

// Iter resolves each matching id to its UnitInfo via the bound Queryable,
// in ascending id order. Ids that fail to resolve (e.g. raced discard) are
// silently skipped.
func (q *Query) Iter() iter.Seq2[uint64, *mapper.UnitInfo] {
	return func(yield func(uint64, *mapper.UnitInfo) bool) {
		for id := range q.ids {
			info, err := q.q.Resolve(id)
			if err != nil {
				continue
			}
			if !yield(id, info) {
				return
			}
		}
	}
}

func intersectSorted(a, b iter.Seq[uint64]) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		nextA, stopA := iter.Pull(a)
		defer stopA()
		nextB, stopB := iter.Pull(b)
		defer stopB()

		va, oka := nextA()
		vb, okb := nextB()
		for oka && okb {
			switch {
			case va == vb:
				if !yield(va) {
					return
				}
				va, oka = nextA()
				vb, okb = nextB()
			case va < vb:
				va, oka = nextA()
			default:
				vb, okb = nextB()
			}
		}
	}
}
