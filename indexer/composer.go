package indexer

import (
	"context"
	"crypto/rand"
	"fmt"

	"arf/arferr"
	"arf/content"
	"arf/mapper"
	"arf/storage"
	"arf/unitspec"
)

// maxOpenTxScopes bounds how many TxScopeIDs a TransactionComposer may have
// allocated at once, per spec.md section 9's retained open question: at
// most half the 16-bit id space.
const maxOpenTxScopes = 1 << 15

// BuilderUnit names one unit to synthesize into a composed transaction,
// excluding the typeid (filled in automatically) and excluding TxScopeMarker
// and TxScopeFinalize (synthesized by Compose itself).
type BuilderUnit struct {
	Type   *unitspec.UnitType
	Pieces []any
}

// TransactionComposer builds candidate transactions off-storage: a
// transient memory-only store and mapper materialize a provisional Content
// that can be checked for occlusions against the store's committed Content
// before anything is appended to the real log.
type TransactionComposer struct {
	spec      *unitspec.ARFSpec
	committed *content.Content
	allocated map[uint16]bool
}

// NewTransactionComposer returns a composer validating candidates against
// committed.
func NewTransactionComposer(spec *unitspec.ARFSpec, committed *content.Content) *TransactionComposer {
	return &TransactionComposer{spec: spec, committed: committed, allocated: make(map[uint16]bool)}
}

func (tc *TransactionComposer) allocateTxScope() (uint16, error) {
	if len(tc.allocated) >= maxOpenTxScopes {
		return 0, fmt.Errorf("%w: %d transaction scopes already open", arferr.ErrResourceExhausted, maxOpenTxScopes)
	}
	var b [2]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("indexer: allocating TxScopeID: %w", err)
		}
		txs := uint16(b[0])<<8 | uint16(b[1])
		if txs == 0 || tc.allocated[txs] {
			continue
		}
		tc.allocated[txs] = true
		return txs, nil
	}
}

// Compose synthesizes a TxScopeMarker, the supplied units, and a
// committing TxScopeFinalize into a transient store, maps them, and
// returns the resulting provisional Content along with the ids of
// committed subjects it would occlude.
func (tc *TransactionComposer) Compose(units ...BuilderUnit) (*content.Content, map[uint64]struct{}, error) {
	txs, err := tc.allocateTxScope()
	if err != nil {
		return nil, nil, err
	}
	defer delete(tc.allocated, txs)

	st := storage.NewMemoryStorage(tc.spec)
	m := mapper.New(st, tc.spec)

	marker, err := tc.spec.New(unitspec.TxScopeMarker, uint64(0), uint64(txs))
	if err != nil {
		return nil, nil, err
	}
	if _, err := st.Append(marker); err != nil {
		return nil, nil, err
	}

	for _, bu := range units {
		u, err := tc.spec.New(bu.Type, bu.Pieces...)
		if err != nil {
			return nil, nil, err
		}
		if _, err := st.Append(u); err != nil {
			return nil, nil, err
		}
	}

	finalize, err := tc.spec.New(unitspec.TxScopeFinalize, true)
	if err != nil {
		return nil, nil, err
	}
	if _, err := st.Append(finalize); err != nil {
		return nil, nil, err
	}

	if err := m.Sync(context.Background()); err != nil {
		return nil, nil, err
	}

	var collected []*mapper.UnitInfo
	for _, info := range allMapped(m) {
		if info.TxScope != nil {
			collected = append(collected, info)
		}
	}

	candidate, err := content.NewFromUnits(m, collected, true)
	if err != nil {
		return nil, nil, err
	}

	occlusions, err := tc.committed.CalcOcclusions(candidate)
	if err != nil {
		return nil, nil, err
	}

	return candidate, occlusions, nil
}

func allMapped(m *mapper.Mapper) []*mapper.UnitInfo {
	var out []*mapper.UnitInfo
	for _, info := range m.IterUnits(0) {
		out = append(out, info)
	}
	return out
}
