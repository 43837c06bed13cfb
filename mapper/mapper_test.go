package mapper

import (
	"context"
	"errors"
	"testing"

	"arf/arferr"
	"arf/storage"
	"arf/unitspec"
)

func mustAppend(t *testing.T, st *storage.MemoryStorage, ut *unitspec.UnitType, pieces ...any) uint64 {
	t.Helper()
	u, err := unitspec.Base.New(ut, pieces...)
	if err != nil {
		t.Fatalf("building %s: %v", ut.Name, err)
	}
	id, err := st.Append(u)
	if err != nil {
		t.Fatalf("appending %s: %v", ut.Name, err)
	}
	return id
}

// TestModifierIDAssignment covers scenario S3: within one transaction scope,
// successive StrandSelect modifiers are assigned strictly increasing ids
// starting at 0, independent per modifier type.
func TestModifierIDAssignment(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	mustAppend(t, st, unitspec.TxScopeMarker, uint64(0), uint64(7))
	sel1 := mustAppend(t, st, unitspec.StrandSelect, uint64(100))
	_ = mustAppend(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1})
	sel2 := mustAppend(t, st, unitspec.StrandSelect, uint64(200))
	_ = mustAppend(t, st, unitspec.StrandWriteDataBlock, uint64(8), []byte{2})
	mustAppend(t, st, unitspec.TxScopeFinalize, true)

	m := New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	info1, err := m.Get(sel1)
	if err != nil {
		t.Fatalf("Get(sel1): %v", err)
	}
	id1, err := info1.ModifierID()
	if err != nil {
		t.Fatalf("ModifierID(sel1): %v", err)
	}
	if id1 != 0 {
		t.Fatalf("first StrandSelect modifier id = %d, want 0", id1)
	}

	info2, err := m.Get(sel2)
	if err != nil {
		t.Fatalf("Get(sel2): %v", err)
	}
	id2, err := info2.ModifierID()
	if err != nil {
		t.Fatalf("ModifierID(sel2): %v", err)
	}
	if id2 != 1 {
		t.Fatalf("second StrandSelect modifier id = %d, want 1", id2)
	}
}

// TestApplicableModifierTracksMostRecentSelector covers REFRESHING
// semantics: a subject's applicable modifier is whichever selector of that
// type was most recently mapped before it, even across multiple subjects.
func TestApplicableModifierTracksMostRecentSelector(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	mustAppend(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	mustAppend(t, st, unitspec.StrandSelect, uint64(42))
	write1 := mustAppend(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1})
	mustAppend(t, st, unitspec.StrandSelect, uint64(43))
	write2 := mustAppend(t, st, unitspec.StrandWriteDataBlock, uint64(8), []byte{2})
	mustAppend(t, st, unitspec.TxScopeFinalize, true)

	m := New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	info1, err := m.Get(write1)
	if err != nil {
		t.Fatalf("Get(write1): %v", err)
	}
	mod1, err := info1.ApplicableModifier(unitspec.StrandSelect)
	if err != nil {
		t.Fatalf("ApplicableModifier(write1): %v", err)
	}
	if mod1 != 0 {
		t.Fatalf("write1's applicable modifier = %d, want 0", mod1)
	}

	info2, err := m.Get(write2)
	if err != nil {
		t.Fatalf("Get(write2): %v", err)
	}
	mod2, err := info2.ApplicableModifier(unitspec.StrandSelect)
	if err != nil {
		t.Fatalf("ApplicableModifier(write2): %v", err)
	}
	if mod2 != 1 {
		t.Fatalf("write2's applicable modifier = %d, want 1", mod2)
	}
}

func TestApplicableModifierBeforeAnySelectorFails(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	mustAppend(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	write1 := mustAppend(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1})
	mustAppend(t, st, unitspec.TxScopeFinalize, true)

	m := New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	info, err := m.Get(write1)
	if err != nil {
		t.Fatalf("Get(write1): %v", err)
	}
	if _, err := info.ApplicableModifier(unitspec.StrandSelect); !errors.Is(err, arferr.ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

func TestTxScopeMarkerRejectsWrongPrev(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	mustAppend(t, st, unitspec.TxScopeMarker, uint64(5), uint64(1))

	m := New(st, unitspec.Base)
	if err := m.Sync(context.Background()); !errors.Is(err, arferr.ErrOrdering) {
		t.Fatalf("expected ErrOrdering, got %v", err)
	}
}

func TestTxScopeFinalizeClosesScope(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	mustAppend(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	mustAppend(t, st, unitspec.TxScopeFinalize, true)
	// A second scope opening with prev-txs 0 is only valid once the first
	// scope has actually closed curTxscope back to 0.
	mustAppend(t, st, unitspec.TxScopeMarker, uint64(0), uint64(2))
	mustAppend(t, st, unitspec.TxScopeFinalize, true)

	m := New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestDiscardRemovesFromLiveSet(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	mustAppend(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	write1 := mustAppend(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1})
	mustAppend(t, st, unitspec.TxScopeFinalize, true)

	m := New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !m.IsLive(write1) {
		t.Fatalf("expected write1 to be live")
	}
	if err := m.Discard(write1); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if m.IsLive(write1) {
		t.Fatalf("expected write1 to no longer be live")
	}
}
