// Package content implements ARF's L5b layer: a committable view of a
// transaction's (or the store's accumulated) TX units, binding subjects to
// their applicable modifiers and resolving the occlusion calculus of
// spec.md section 4.8 when two such views are merged.
package content

import (
	"fmt"
	"iter"
	"sort"

	"arf/arferr"
	"arf/index"
	"arf/mapper"
	"arf/unitspec"
)

// Content pairs a subjects index and a modifiers index over a fixed set of
// TX units, per spec.md section 4.7.
type Content struct {
	m         *mapper.Mapper
	committed bool

	subjects  *index.ARFMapperIndex
	modifiers *index.ARFMapperIndex

	// finalizeID maps txs -> its TxScopeFinalize store id, populated only
	// for committed content.
	finalizeID map[uint16]uint64
}

// New returns an empty Content over m. committed tags whether subjects
// added to it participate in commit-time content ordering (non-zero
// FinalizeID) or candidate ordering (subject-id only) — see ContentOrder.
func New(m *mapper.Mapper, committed bool) *Content {
	subjects := index.NewARFMapperIndex(m, []index.KeyDef{index.TxsKey(), index.TypeKey()}, false,
		func(info *mapper.UnitInfo) bool { return info.Type.IsTXSubject() })
	modifiers := index.NewARFMapperIndex(m, []index.KeyDef{index.TxsKey(), index.TypeKey(), index.ModIDKey()}, true,
		func(info *mapper.UnitInfo) bool { return info.Type.IsTXModifier() })
	return &Content{
		m:          m,
		committed:  committed,
		subjects:   subjects,
		modifiers:  modifiers,
		finalizeID: make(map[uint16]uint64),
	}
}

// NewFromUnits builds a Content from a closed transaction scope's full unit
// set (as collected by an Indexer from its open-scope index), testing for
// internal occlusions. A release-only scope cannot form a Content.
func NewFromUnits(m *mapper.Mapper, units []*mapper.UnitInfo, isCommit bool) (*Content, error) {
	if !isCommit {
		return nil, fmt.Errorf("%w: a release-only transaction cannot form a Content", arferr.ErrNotCommittable)
	}
	c := New(m, true)
	for _, u := range units {
		if err := c.addUnit(u); err != nil {
			return nil, err
		}
	}
	if err := c.checkInternalOcclusions(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Content) addUnit(u *mapper.UnitInfo) error {
	switch {
	case u.Type == unitspec.TxScopeFinalize:
		if u.TxScope != nil {
			c.finalizeID[*u.TxScope] = u.StoreID
		}
		return nil
	case u.Type.IsTXSubject():
		return c.subjects.MaybeAddUnit(u)
	case u.Type.IsTXModifier():
		return c.modifiers.MaybeAddUnit(u)
	}
	return nil
}

func (c *Content) resolveModifier(txs uint16, modType *unitspec.UnitType, modID uint32) (*mapper.UnitInfo, error) {
	ids, err := c.modifiers.IterWithConstraints(map[string]index.Constraint{
		"txs":    index.Key(uint64(txs)),
		"type":   index.Key(modType),
		"mod_id": index.Key(uint64(modID)),
	})
	if err != nil {
		return nil, err
	}
	for id := range ids {
		return c.m.Get(id)
	}
	return nil, fmt.Errorf("%w: no %s modifier with mod-id %d in txs %d", arferr.ErrLookup, modType.Name, modID, txs)
}

func (c *Content) allSubjects() ([]*SubjectWithContext, error) {
	var out []*SubjectWithContext
	for id := range c.subjects.IDs() {
		info, err := c.m.Get(id)
		if err != nil {
			continue
		}
		txs := *info.TxScope
		sc, err := NewSubjectWithContext(info, c.finalizeID[txs], func(modType *unitspec.UnitType, modID uint32) (*mapper.UnitInfo, error) {
			return c.resolveModifier(txs, modType, modID)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func (c *Content) checkInternalOcclusions() error {
	subs, err := c.allSubjects()
	if err != nil {
		return err
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ContentOrder.Less(subs[j].ContentOrder) })
	for i := range subs {
		for j := i + 1; j < len(subs); j++ {
			if occludes(subs[i], subs[j]) {
				return fmt.Errorf("%w: subject %d is occluded by subject %d within the same transaction",
					arferr.ErrConflictingContent, subs[i].Info.StoreID, subs[j].Info.StoreID)
			}
		}
	}
	return nil
}

// CalcOcclusions returns the ids of c's subjects that are occluded by some
// subject of other, unconditional on relative order (cross-content
// occlusion is always "other comes after c" per spec.md section 4.7's
// merge-in use).
func (c *Content) CalcOcclusions(other *Content) (map[uint64]struct{}, error) {
	selfSubs, err := c.allSubjects()
	if err != nil {
		return nil, err
	}
	otherSubs, err := other.allSubjects()
	if err != nil {
		return nil, err
	}
	occluded := make(map[uint64]struct{})
	for _, rear := range selfSubs {
		for _, fore := range otherSubs {
			if occludes(rear, fore) {
				occluded[rear.Info.StoreID] = struct{}{}
				break
			}
		}
	}
	return occluded, nil
}

// CalcUnusedMods returns the ids of c's modifiers no longer referenced as
// the applicable modifier of any remaining subject.
func (c *Content) CalcUnusedMods() (map[uint64]struct{}, error) {
	subs, err := c.allSubjects()
	if err != nil {
		return nil, err
	}
	used := make(map[uint64]struct{})
	for _, sc := range subs {
		for _, modInfo := range sc.Modifiers() {
			used[modInfo.StoreID] = struct{}{}
		}
	}
	unused := make(map[uint64]struct{})
	for id := range c.modifiers.IDs() {
		if _, ok := used[id]; !ok {
			unused[id] = struct{}{}
		}
	}
	return unused, nil
}

// MergeIn folds other's units into c, per spec.md section 4.7: subjects of
// c occluded by a subject of other are discarded first, then modifiers of
// c left unused by that discard are discarded, and finally other's units
// are added into c's indexes. c and other must share a mapper and commit
// status.
func (c *Content) MergeIn(other *Content) error {
	if c.m != other.m {
		return fmt.Errorf("%w: contents do not share a mapper", arferr.ErrType)
	}
	if c.committed != other.committed {
		panic("content: cannot merge contents of differing commit status")
	}

	occluded, err := c.CalcOcclusions(other)
	if err != nil {
		return err
	}
	for id := range occluded {
		if err := c.m.Discard(id); err != nil {
			return err
		}
		c.subjects.DiscardUnit(id)
	}

	unused, err := c.CalcUnusedMods()
	if err != nil {
		return err
	}
	for id := range unused {
		if err := c.m.Discard(id); err != nil {
			return err
		}
		c.modifiers.DiscardUnit(id)
	}

	return c.mergeUnitsFrom(other)
}

func (c *Content) mergeUnitsFrom(other *Content) error {
	for id := range other.subjects.IDs() {
		info, err := c.m.Get(id)
		if err != nil {
			continue
		}
		if err := c.subjects.MaybeAddUnit(info); err != nil {
			return err
		}
	}
	for id := range other.modifiers.IDs() {
		info, err := c.m.Get(id)
		if err != nil {
			continue
		}
		if err := c.modifiers.MaybeAddUnit(info); err != nil {
			return err
		}
	}
	for txs, fid := range other.finalizeID {
		c.finalizeID[txs] = fid
	}
	return nil
}

// SubjectCount reports how many subjects c currently indexes.
func (c *Content) SubjectCount() int {
	n := 0
	for range c.subjects.IDs() {
		n++
	}
	return n
}

// Iter returns c's subjects in content order (commit order, then stream
// order within a commit).
func (c *Content) Iter() (iter.Seq[*SubjectWithContext], error) {
	subs, err := c.allSubjects()
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ContentOrder.Less(subs[j].ContentOrder) })
	return sliceSeq(subs), nil
}

// IterStreamOrder returns c's subjects in raw append order, ignoring
// commit grouping.
func (c *Content) IterStreamOrder() (iter.Seq[*SubjectWithContext], error) {
	subs, err := c.allSubjects()
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Info.StoreID < subs[j].Info.StoreID })
	return sliceSeq(subs), nil
}

func sliceSeq(subs []*SubjectWithContext) iter.Seq[*SubjectWithContext] {
	return func(yield func(*SubjectWithContext) bool) {
		for _, s := range subs {
			if !yield(s) {
				return
			}
		}
	}
}
