// Package indexer implements ARF's L5c layer: the composite façade that
// turns a mapper's raw unit stream into a committed Content plus a view of
// in-flight transaction scopes, per spec.md section 4.9.
package indexer

import (
	"iter"
	"sync/atomic"

	"arf/content"
	"arf/index"
	"arf/logger"
	"arf/mapper"
	"arf/unitspec"

	"github.com/google/uuid"
)

// Indexer owns a mapper, a globals index of non-TX units, the store's
// committed Content, and an OpenTXsIndex tracking units whose transaction
// scope has not yet finalized.
type Indexer struct {
	mapper *mapper.Mapper
	spec   *unitspec.ARFSpec
	feed   *mapper.Feed

	globals   *index.ARFMapperIndex
	committed *content.Content
	open      *OpenTXsIndex

	activeScopes map[uint16]*content.StrandCompositeSelection
	openTxs      map[uint16]struct{}

	instanceID   string
	log          func(level logger.Level, format string, args ...any)
	discardCount atomic.Int64
}

// New builds an Indexer over m, subscribing to its feed immediately. spec
// must be the same spec m was constructed with.
func New(m *mapper.Mapper, spec *unitspec.ARFSpec) *Indexer {
	ix := &Indexer{
		mapper: m,
		spec:   spec,
		globals: index.NewARFMapperIndex(m, []index.KeyDef{index.TypeKey()}, false,
			func(info *mapper.UnitInfo) bool { return info.TxScope == nil }),
		committed:    content.New(m, true),
		open:         NewOpenTXsIndex(m),
		activeScopes: make(map[uint16]*content.StrandCompositeSelection),
		openTxs:      make(map[uint16]struct{}),
		instanceID:   uuid.NewString(),
	}
	ix.log = logger.WithInstance(ix.instanceID)
	ix.feed = m.GetFeed(ix.onExtend, ix.onDelete)
	return ix
}

// Mapper returns the underlying mapper.
func (ix *Indexer) Mapper() *mapper.Mapper { return ix.mapper }

// Globals returns the index of live non-TX units.
func (ix *Indexer) Globals() *index.ARFMapperIndex { return ix.globals }

// Committed returns the store's accumulated committed Content.
func (ix *Indexer) Committed() *content.Content { return ix.committed }

// Open returns the index of units belonging to not-yet-finalized
// transaction scopes.
func (ix *Indexer) Open() *OpenTXsIndex { return ix.open }

// ActiveScopes returns the strand selections folded from the
// StrandSelect/StrandGroupSelect units seen so far for each open txs.
func (ix *Indexer) ActiveScopes() map[uint16]*content.StrandCompositeSelection {
	return ix.activeScopes
}

func (ix *Indexer) onExtend(units iter.Seq2[uint64, *mapper.UnitInfo]) {
	for _, info := range units {
		ix.ingest(info)
	}
}

func (ix *Indexer) ingest(info *mapper.UnitInfo) {
	if info.TxScope == nil {
		if err := ix.globals.MaybeAddUnit(info); err != nil {
			ix.log(logger.ERROR, "indexing global unit %d: %v", info.StoreID, err)
		}
		return
	}

	txs := *info.TxScope
	ix.openTxs[txs] = struct{}{}
	if err := ix.open.MaybeAddUnit(info); err != nil {
		ix.log(logger.ERROR, "indexing open-tx unit %d: %v", info.StoreID, err)
		return
	}

	switch info.Type {
	case unitspec.StrandSelect, unitspec.StrandGroupSelect:
		sel, ok := ix.activeScopes[txs]
		if !ok {
			sel = content.NewStrandCompositeSelection()
			ix.activeScopes[txs] = sel
		}
		if err := sel.Add(info); err != nil {
			ix.log(logger.ERROR, "folding selector %d into txs %d: %v", info.StoreID, txs, err)
		}

	case unitspec.TxScopeFinalize:
		ix.finalize(txs, info)
	}
}

func (ix *Indexer) finalize(txs uint16, finalizeInfo *mapper.UnitInfo) {
	units, err := ix.open.CollectAndRemove(txs)
	if err != nil {
		ix.log(logger.ERROR, "collecting txs %d at finalize: %v", txs, err)
		return
	}
	delete(ix.activeScopes, txs)
	delete(ix.openTxs, txs)

	isCommitVal, err := finalizeInfo.Piece("is-commit")
	if err != nil {
		ix.log(logger.ERROR, "reading is-commit for txs %d: %v", txs, err)
		return
	}
	isCommit := isCommitVal.(bool)

	if !isCommit {
		for _, u := range units {
			if err := ix.mapper.Discard(u.StoreID); err != nil {
				ix.log(logger.ERROR, "discarding released unit %d: %v", u.StoreID, err)
			}
		}
		ix.log(logger.DEBUG, "released txs %d (%d units)", txs, len(units))
		return
	}

	c, err := content.NewFromUnits(ix.mapper, units, true)
	if err != nil {
		ix.log(logger.ERROR, "building content for txs %d: %v", txs, err)
		return
	}
	if err := ix.committed.MergeIn(c); err != nil {
		ix.log(logger.ERROR, "merging committed content for txs %d: %v", txs, err)
		return
	}
	ix.log(logger.INFO, "committed txs %d (%d units)", txs, len(units))
}

func (ix *Indexer) onDelete(id uint64) {
	ix.globals.DiscardUnit(id)
	ix.open.DiscardUnit(id)
	ix.discardCount.Add(1)
}

// DiscardCount reports how many units this indexer has observed discarded,
// whether by release, occlusion, or unused-modifier cleanup.
func (ix *Indexer) DiscardCount() int64 {
	return ix.discardCount.Load()
}

// OpenTransactionCount reports how many transaction scopes are currently
// open (marked but not yet finalized).
func (ix *Indexer) OpenTransactionCount() int {
	return len(ix.openTxs)
}
