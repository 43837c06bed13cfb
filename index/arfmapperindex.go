package index

import (
	"fmt"
	"iter"
	"sort"

	"arf/arferr"
	"arf/container"
	"arf/mapper"
)

// ARFMapperIndex is a keyed index over a Mapper's live units, per spec.md
// section 4.7. Each keydef names one level of the hierarchy; the terminal
// level holds either a single id (unique) or a perishable set of ids.
type ARFMapperIndex struct {
	keydefs  []KeyDef
	unique   bool
	selector func(*mapper.UnitInfo) bool
	m        *mapper.Mapper

	root levelStore

	// keyPaths records, per indexed id, the exact key path used to insert
	// it, so DiscardUnit can remove it precisely instead of relying solely
	// on perishable-set laziness (which does not cover unique terminals).
	keyPaths map[uint64][]any

	wellSorted bool
	hasLast    bool
	lastID     uint64
}

// NewARFMapperIndex constructs an index over m's live units. selector, if
// non-nil, restricts which units are indexed.
func NewARFMapperIndex(m *mapper.Mapper, keydefs []KeyDef, unique bool, selector func(*mapper.UnitInfo) bool) *ARFMapperIndex {
	if len(keydefs) == 0 {
		panic("index: ARFMapperIndex requires at least one keydef")
	}
	idx := &ARFMapperIndex{
		keydefs:    keydefs,
		unique:     unique,
		selector:   selector,
		m:          m,
		keyPaths:   make(map[uint64][]any),
		wellSorted: true,
	}
	idx.root = idx.newLevelStore(0)
	return idx
}

func (idx *ARFMapperIndex) newLevelStore(depth int) levelStore {
	if idx.keydefs[depth].Sliceable {
		return newOrderedLevelStore()
	}
	return newHashLevelStore()
}

func (idx *ARFMapperIndex) keyValue(kd KeyDef, info *mapper.UnitInfo) (any, error) {
	if kd.Extract != nil {
		return kd.Extract(info)
	}
	return info.Piece(kd.Name)
}

// MaybeAddUnit indexes info if it passes the selector and every keydef
// resolves against it.
func (idx *ARFMapperIndex) MaybeAddUnit(info *mapper.UnitInfo) error {
	if idx.selector != nil && !idx.selector(info) {
		return nil
	}
	keys := make([]any, len(idx.keydefs))
	for i, kd := range idx.keydefs {
		v, err := idx.keyValue(kd, info)
		if err != nil {
			return nil
		}
		keys[i] = v
	}
	idx.insert(keys, info.StoreID)
	idx.keyPaths[info.StoreID] = keys
	if idx.hasLast && info.StoreID < idx.lastID {
		idx.wellSorted = false
	}
	idx.lastID = info.StoreID
	idx.hasLast = true
	return nil
}

func (idx *ARFMapperIndex) descendToTerminal(keys []any, create bool) levelStore {
	store := idx.root
	for d := 0; d < len(keys)-1; d++ {
		next, ok := store.get(keys[d])
		if !ok {
			if !create {
				return nil
			}
			next = idx.newLevelStore(d + 1)
			store.set(keys[d], next)
		}
		store = next.(levelStore)
	}
	return store
}

func (idx *ARFMapperIndex) insert(keys []any, id uint64) {
	store := idx.descendToTerminal(keys, true)
	last := keys[len(keys)-1]
	if idx.unique {
		store.set(last, id)
		return
	}
	v, ok := store.get(last)
	var set *container.Perishable[uint64, struct{}]
	if !ok {
		set = container.NewPerishable[uint64, struct{}](idx.m.IsLive)
		store.set(last, set)
	} else {
		set = v.(*container.Perishable[uint64, struct{}])
	}
	set.Set(id, struct{}{})
}

// DiscardUnit removes id from the index.
func (idx *ARFMapperIndex) DiscardUnit(id uint64) {
	keys, ok := idx.keyPaths[id]
	if !ok {
		return
	}
	delete(idx.keyPaths, id)
	store := idx.descendToTerminal(keys, false)
	if store == nil {
		return
	}
	last := keys[len(keys)-1]
	if idx.unique {
		store.delete(last)
		return
	}
	if v, ok := store.get(last); ok {
		v.(*container.Perishable[uint64, struct{}]).Delete(id)
	}
}

// IterWithConstraints resolves the ids matching constraints, in ascending
// id order, per spec.md section 4.7's descend-then-merge algorithm.
func (idx *ARFMapperIndex) IterWithConstraints(constraints map[string]Constraint) (iter.Seq[uint64], error) {
	return idx.descend(idx.root, 0, constraints)
}

func (idx *ARFMapperIndex) descend(store levelStore, depth int, constraints map[string]Constraint) (iter.Seq[uint64], error) {
	kd := idx.keydefs[depth]
	isTerminal := depth == len(idx.keydefs)-1
	c, has := constraints[kd.Name]

	collect := func(value any) (iter.Seq[uint64], error) {
		if isTerminal {
			return idx.terminalStream(value), nil
		}
		return idx.descend(value.(levelStore), depth+1, constraints)
	}

	if !has {
		var streams []iter.Seq[uint64]
		var errOut error
		store.all(func(_ any, value any) bool {
			s, err := collect(value)
			if err != nil {
				errOut = err
				return false
			}
			streams = append(streams, s)
			return true
		})
		if errOut != nil {
			return nil, errOut
		}
		return mergeIDStreams(streams, isTerminal && idx.wellSorted), nil
	}

	switch c.kind {
	case constraintSingle:
		v, ok := store.get(c.single)
		if !ok {
			return emptyIDStream, nil
		}
		return collect(v)

	case constraintSet:
		var streams []iter.Seq[uint64]
		for key := range c.set {
			v, ok := store.get(key)
			if !ok {
				continue
			}
			s, err := collect(v)
			if err != nil {
				return nil, err
			}
			streams = append(streams, s)
		}
		return mergeIDStreams(streams, isTerminal && idx.wellSorted), nil

	case constraintInterval:
		if !kd.Sliceable {
			return nil, fmt.Errorf("%w: keydef %q is not sliceable", arferr.ErrNotSliceable, kd.Name)
		}
		var streams []iter.Seq[uint64]
		var errOut error
		store.rangeInterval(c.lo, c.hi, func(_ any, value any) bool {
			s, err := collect(value)
			if err != nil {
				errOut = err
				return false
			}
			streams = append(streams, s)
			return true
		})
		if errOut != nil {
			return nil, errOut
		}
		return mergeIDStreams(streams, isTerminal && idx.wellSorted), nil

	default:
		return nil, fmt.Errorf("index: unknown constraint kind %d", c.kind)
	}
}

func (idx *ARFMapperIndex) terminalStream(value any) iter.Seq[uint64] {
	if idx.unique {
		id := value.(uint64)
		return func(yield func(uint64) bool) { yield(id) }
	}
	set := value.(*container.Perishable[uint64, struct{}])
	// set.Iter() ranges a Go map and yields ids in no defined order; every
	// consumer of a terminal stream (mergeIDStreams' well-sorted heap merge,
	// Query.Join's sorted-merge intersection) requires ascending id order,
	// so sort here rather than push the ordering requirement onto Perishable.
	ids := make([]uint64, 0)
	for id := range set.Iter() {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return func(yield func(uint64) bool) {
		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
}

func emptyIDStream(func(uint64) bool) {}

// IDs implements Queryable by resolving this index's full, unconstrained
// id set, in ascending order.
func (idx *ARFMapperIndex) IDs() iter.Seq[uint64] {
	s, err := idx.IterWithConstraints(nil)
	if err != nil {
		return emptyIDStream
	}
	return s
}

// Resolve implements Queryable by delegating to the underlying mapper.
func (idx *ARFMapperIndex) Resolve(id uint64) (*mapper.UnitInfo, error) {
	return idx.m.Get(id)
}
