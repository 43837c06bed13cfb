package content

import (
	"context"
	"errors"
	"testing"

	"arf/arferr"
	"arf/mapper"
	"arf/storage"
	"arf/unitspec"
)

func appendUnit(t *testing.T, st *storage.MemoryStorage, ut *unitspec.UnitType, pieces ...any) uint64 {
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

func syncedMapper(t *testing.T, st *storage.MemoryStorage) *mapper.Mapper {
	t.Helper()
	m := mapper.New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return m
}

func txUnits(m *mapper.Mapper, txs uint16) []*mapper.UnitInfo {
	var out []*mapper.UnitInfo
	for _, info := range m.IterUnits(0) {
		if info.TxScope != nil && *info.TxScope == txs && info.Type != unitspec.TxScopeFinalize {
			out = append(out, info)
		}
	}
	return out
}

func TestNewFromUnitsRejectsRelease(t *testing.T) {
	if _, err := NewFromUnits(nil, nil, false); !errors.Is(err, arferr.ErrNotCommittable) {
		t.Fatalf("expected ErrNotCommittable, got %v", err)
	}
}

func TestNewFromUnitsBuildsSubjects(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	appendUnit(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	appendUnit(t, st, unitspec.StrandSelect, uint64(5))
	appendUnit(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1, 2})
	appendUnit(t, st, unitspec.TxScopeFinalize, true)

	m := syncedMapper(t, st)
	c, err := NewFromUnits(m, txUnits(m, 1), true)
	if err != nil {
		t.Fatalf("NewFromUnits: %v", err)
	}
	if c.SubjectCount() != 1 {
		t.Fatalf("SubjectCount() = %d, want 1", c.SubjectCount())
	}
}

// TestMergeInOcclusion covers the cross-transaction half of scenario S4: a
// second, committed transaction's StrandDiscard occludes a subject written
// by an earlier committed transaction on the same strand.
func TestMergeInOcclusion(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	appendUnit(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	appendUnit(t, st, unitspec.StrandSelect, uint64(5))
	write := appendUnit(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1, 2})
	appendUnit(t, st, unitspec.TxScopeFinalize, true)

	appendUnit(t, st, unitspec.TxScopeMarker, uint64(0), uint64(2))
	appendUnit(t, st, unitspec.StrandGroupSelect, uint64(0), uint64(8))
	appendUnit(t, st, unitspec.StrandDiscard)
	appendUnit(t, st, unitspec.TxScopeFinalize, true)

	m := syncedMapper(t, st)

	committed := New(m, true)
	firstContent, err := NewFromUnits(m, txUnits(m, 1), true)
	if err != nil {
		t.Fatalf("NewFromUnits(txs 1): %v", err)
	}
	if err := committed.MergeIn(firstContent); err != nil {
		t.Fatalf("MergeIn(first): %v", err)
	}
	if committed.SubjectCount() != 1 {
		t.Fatalf("SubjectCount() after first merge = %d, want 1", committed.SubjectCount())
	}

	secondContent, err := NewFromUnits(m, txUnits(m, 2), true)
	if err != nil {
		t.Fatalf("NewFromUnits(txs 2): %v", err)
	}
	if err := committed.MergeIn(secondContent); err != nil {
		t.Fatalf("MergeIn(second): %v", err)
	}

	if m.IsLive(write) {
		t.Fatalf("expected the first write to be discarded once occluded")
	}
	if committed.SubjectCount() != 1 {
		t.Fatalf("SubjectCount() after occlusion = %d, want 1 (the discard itself)", committed.SubjectCount())
	}
}

func TestMergeInRejectsMismatchedCommitStatus(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	appendUnit(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	appendUnit(t, st, unitspec.StrandSelect, uint64(1))
	appendUnit(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1})
	appendUnit(t, st, unitspec.TxScopeFinalize, true)
	m := syncedMapper(t, st)

	committed := New(m, true)
	candidate := New(m, false)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic merging mismatched commit status")
		}
	}()
	_ = committed.MergeIn(candidate)
}
