// Package mapper implements ARF's L4 layer: an incremental scanner that
// turns a raw append-only log into per-unit UnitInfo records, assigning
// stable per-transaction-scope modifier ids as it goes, and publishing
// growth/deletion events to subscribed feeds.
package mapper

import (
	"context"
	"fmt"
	"iter"

	"arf/arferr"
	"arf/logger"
	"arf/storage"
	"arf/unitspec"
)

type scanPhase int

const (
	// phaseGlobalPrefix maps GLOBAL non-scope-controller units until the
	// first GLOBAL scope-controller or TX unit appears.
	phaseGlobalPrefix scanPhase = iota
	// phaseSeekMarker skims typeids (without mapping them) until a
	// TxScopeMarker establishes the first open scope.
	phaseSeekMarker
	// phaseSteadyState maps every subsequent unit.
	phaseSteadyState
)

// Mapper incrementally scans a SequentialStorage, per spec.md section 4.5.
// It is not safe for concurrent use: the core contract is single-threaded
// cooperative (spec.md section 5).
type Mapper struct {
	storage storage.SequentialStorage
	spec    *unitspec.ARFSpec

	phase      scanPhase
	nextScanID uint64
	curTxscope uint16 // 0 means no scope is currently open
	syncing    bool

	order []uint64
	units map[uint64]*UnitInfo

	// modNextIDs holds, per open-or-recently-closed txs, a vector indexed
	// by ARFSpec.ModifierIndex giving the id to assign to the next
	// modifier of that type.
	modNextIDs map[uint16][]uint32

	feeds []*Feed
}

// New constructs a Mapper over st, scanning with spec's unit-type catalog.
func New(st storage.SequentialStorage, spec *unitspec.ARFSpec) *Mapper {
	return &Mapper{
		storage:    st,
		spec:       spec,
		nextScanID: 1,
		units:      make(map[uint64]*UnitInfo),
		modNextIDs: make(map[uint16][]uint32),
	}
}

// Sync drives the three-phase scan state machine, mapping every id
// appended to storage since the last Sync call. It never rewinds the scan
// cursor and is idempotent when storage hasn't grown. ctx bounds very
// large initial scans; mid-phase cancellation is not itself a suspension
// point the core contract requires (spec.md section 5), so a cancelled
// Sync still leaves the mapper in a consistent, resumable state.
func (m *Mapper) Sync(ctx context.Context) error {
	if m.syncing {
		return fmt.Errorf("%w: Sync is already in progress", arferr.ErrConcurrentMutation)
	}
	m.syncing = true

	var newIDs []uint64
	var scanErr error

loop:
	for {
		select {
		case <-ctx.Done():
			scanErr = ctx.Err()
			break loop
		default:
		}

		id := m.nextScanID
		if id >= m.storage.NextID() {
			break
		}
		if !m.storage.Contains(id) {
			// a deleted record: nothing to map, scan on past it
			m.nextScanID++
			continue
		}
		u, err := m.storage.Read(id)
		if err != nil {
			scanErr = fmt.Errorf("mapper: reading store id %d: %w", id, err)
			break loop
		}

		switch m.phase {
		case phaseGlobalPrefix:
			if u.Type.Scope == unitspec.ScopeGlobal && u.Type.Grammar != unitspec.GrammarScopeController {
				break
			}
			m.phase = phaseSeekMarker
			continue
		case phaseSeekMarker:
			if u.Type != unitspec.TxScopeMarker {
				m.nextScanID++
				continue
			}
			m.phase = phaseSteadyState
		}

		info, err := m.mapUnit(id, u)
		if err != nil {
			scanErr = err
			break loop
		}
		m.units[id] = info
		m.order = append(m.order, id)
		newIDs = append(newIDs, id)
		m.nextScanID++
	}

	// syncing must be cleared before notify: feed callbacks routinely call
	// back into Discard (the Indexer's commit/release path does this on
	// every occlusion), and Discard refuses to run while syncing is true.
	m.syncing = false
	m.notify(newIDs)
	return scanErr
}

// mapUnit applies the UnitInfo construction rules of spec.md section 4.5
// to a freshly read unit.
func (m *Mapper) mapUnit(id uint64, u *unitspec.Unit) (*UnitInfo, error) {
	ut := u.Type
	info := &UnitInfo{StoreID: id, Type: ut, mapper: m}

	if len(ut.Cached) > 0 {
		cached := make(map[string]any, len(ut.Cached))
		for _, name := range ut.Cached {
			v, err := u.Get(name)
			if err != nil {
				return nil, err
			}
			cached[name] = v
		}
		info.Cached = cached
	}

	switch {
	case ut == unitspec.TxScopeMarker:
		prev, err := u.Get("prev-txs")
		if err != nil {
			return nil, err
		}
		next, err := u.Get("next-txs")
		if err != nil {
			return nil, err
		}
		prevTxs := uint16(prev.(uint64))
		nextTxs := uint16(next.(uint64))
		if prevTxs != m.curTxscope {
			return nil, fmt.Errorf("%w: TxScopeMarker at id %d declares prev-txs %d but the open scope is %d",
				arferr.ErrOrdering, id, prevTxs, m.curTxscope)
		}
		m.curTxscope = nextTxs
		logger.TraceIf("mapper", "scope %d opened at id %d", nextTxs, id)

	case ut.Scope == unitspec.ScopeTX:
		txs := m.curTxscope
		info.TxScope = &txs

		switch {
		case ut == unitspec.TxScopeFinalize:
			vec := m.modVector(txs)
			for i := range vec {
				vec[i]++
			}
			m.curTxscope = 0
			logger.TraceIf("mapper", "scope %d finalized at id %d", txs, id)

		case ut.IsTXModifier():
			vec := m.modVector(txs)
			idx, ok := m.spec.ModifierIndex(ut)
			if !ok {
				return nil, fmt.Errorf("%w: modifier type %s not found in spec's modifier order", arferr.ErrLookup, ut.Name)
			}
			info.ModAssoc = ModAssoc{Kind: ModAssocModifier, ModifierID: vec[idx]}
			vec[idx]++

		case ut.IsTXSubject():
			vec := m.modVector(txs)
			snapshot := append([]uint32(nil), vec...)
			info.ModAssoc = ModAssoc{Kind: ModAssocSubject, SubjectSnapshot: snapshot}
		}
	}

	return info, nil
}

func (m *Mapper) modVector(txs uint16) []uint32 {
	vec, ok := m.modNextIDs[txs]
	if !ok {
		vec = make([]uint32, len(m.spec.ModifierTypes()))
		m.modNextIDs[txs] = vec
	}
	return vec
}

// IsLive reports whether id is currently mapped (appended and not yet
// discarded). It is the TestValid predicate perishable containers built
// over this mapper's ids should use.
func (m *Mapper) IsLive(id uint64) bool {
	_, ok := m.units[id]
	return ok
}

// Get resolves a mapped unit by store id.
func (m *Mapper) Get(id uint64) (*UnitInfo, error) {
	info, ok := m.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: store id %d is not mapped", arferr.ErrLookup, id)
	}
	return info, nil
}

// IterUnits iterates mapped units in store-id order, starting at startID.
func (m *Mapper) IterUnits(startID uint64) iter.Seq2[uint64, *UnitInfo] {
	return func(yield func(uint64, *UnitInfo) bool) {
		for _, id := range m.order {
			if id < startID {
				continue
			}
			info, ok := m.units[id]
			if !ok {
				continue
			}
			if !yield(id, info) {
				return
			}
		}
	}
}

// GetFeed registers a new Feed against this mapper's growth and deletion
// events.
func (m *Mapper) GetFeed(recvExtend func(iter.Seq2[uint64, *UnitInfo]), recvDelete func(uint64)) *Feed {
	f := &Feed{RecvExtend: recvExtend, RecvDelete: recvDelete}
	m.feeds = append(m.feeds, f)
	return f
}

// Unsubscribe removes f from this mapper's feed list.
func (m *Mapper) Unsubscribe(f *Feed) {
	for i, existing := range m.feeds {
		if existing == f {
			m.feeds = append(m.feeds[:i], m.feeds[i+1:]...)
			return
		}
	}
}

// Discard logically deletes the unit at id from storage and removes it
// from this mapper's live set, notifying any feed that has already
// observed it. Forbidden while a Sync is in progress (spec.md section 9's
// retained open-question decision).
func (m *Mapper) Discard(id uint64) error {
	if m.syncing {
		return fmt.Errorf("%w: cannot discard id %d while a Sync is in progress", arferr.ErrConcurrentMutation, id)
	}
	if err := m.storage.Discard(id); err != nil {
		return err
	}
	if _, ok := m.units[id]; ok {
		delete(m.units, id)
		for _, f := range m.feeds {
			if id <= f.LastSyncID {
				f.RecvDelete(id)
			}
		}
	}
	return nil
}

func (m *Mapper) notify(newIDs []uint64) {
	if len(newIDs) == 0 {
		return
	}
	for _, f := range m.feeds {
		ids := newIDs
		f.RecvExtend(func(yield func(uint64, *UnitInfo) bool) {
			for _, id := range ids {
				info, ok := m.units[id]
				if !ok {
					continue
				}
				if !yield(id, info) {
					return
				}
			}
		})
		f.LastSyncID = ids[len(ids)-1]
	}
}
