package index

import (
	"context"
	"testing"

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

func TestARFMapperIndexByType(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	appendUnit(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	write1 := appendUnit(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1})
	write2 := appendUnit(t, st, unitspec.StrandWriteDataBlock, uint64(8), []byte{2})
	appendUnit(t, st, unitspec.TxScopeFinalize, true)

	m := mapper.New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	idx := NewARFMapperIndex(m, []KeyDef{TypeKey()}, false, func(info *mapper.UnitInfo) bool { return true })
	for _, info := range m.IterUnits(0) {
		if err := idx.MaybeAddUnit(info); err != nil {
			t.Fatalf("MaybeAddUnit: %v", err)
		}
	}

	ids, err := idx.IterWithConstraints(map[string]Constraint{"type": Key(unitspec.StrandWriteDataBlock)})
	if err != nil {
		t.Fatalf("IterWithConstraints: %v", err)
	}
	var got []uint64
	for id := range ids {
		got = append(got, id)
	}
	if len(got) != 2 || got[0] != write1 || got[1] != write2 {
		t.Fatalf("got %v, want [%d %d]", got, write1, write2)
	}
}

func TestARFMapperIndexDiscardUnit(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	appendUnit(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	write1 := appendUnit(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1})
	appendUnit(t, st, unitspec.TxScopeFinalize, true)

	m := mapper.New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	idx := NewARFMapperIndex(m, []KeyDef{TypeKey()}, false, nil)
	for _, info := range m.IterUnits(0) {
		idx.MaybeAddUnit(info)
	}

	idx.DiscardUnit(write1)
	ids, err := idx.IterWithConstraints(map[string]Constraint{"type": Key(unitspec.StrandWriteDataBlock)})
	if err != nil {
		t.Fatalf("IterWithConstraints: %v", err)
	}
	for range ids {
		t.Fatalf("expected no results after discard")
	}
}

func TestARFMapperIndexUniqueTerminal(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	appendUnit(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	sel := appendUnit(t, st, unitspec.StrandSelect, uint64(42))
	appendUnit(t, st, unitspec.TxScopeFinalize, true)

	m := mapper.New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	idx := NewARFMapperIndex(m, []KeyDef{TxsKey(), TypeKey(), ModIDKey()}, true,
		func(info *mapper.UnitInfo) bool { return info.Type.IsTXModifier() })
	for _, info := range m.IterUnits(0) {
		if err := idx.MaybeAddUnit(info); err != nil {
			t.Fatalf("MaybeAddUnit: %v", err)
		}
	}

	ids, err := idx.IterWithConstraints(map[string]Constraint{
		"txs": Key(uint64(1)), "type": Key(unitspec.StrandSelect), "mod_id": Key(uint64(0)),
	})
	if err != nil {
		t.Fatalf("IterWithConstraints: %v", err)
	}
	var got []uint64
	for id := range ids {
		got = append(got, id)
	}
	if len(got) != 1 || got[0] != sel {
		t.Fatalf("got %v, want [%d]", got, sel)
	}
}

func TestQueryFilterIDsCount(t *testing.T) {
	st := storage.NewMemoryStorage(unitspec.Base)
	appendUnit(t, st, unitspec.TxScopeMarker, uint64(0), uint64(1))
	write1 := appendUnit(t, st, unitspec.StrandWriteDataBlock, uint64(0), []byte{1})
	appendUnit(t, st, unitspec.StrandWriteDataBlock, uint64(8), []byte{2})
	appendUnit(t, st, unitspec.TxScopeFinalize, true)

	m := mapper.New(st, unitspec.Base)
	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	q := NewQuery(MapperQueryable{M: m}).FilterIDs(func(id uint64) bool { return id == write1 })
	n := q.Count()
	if n != 1 {
		t.Fatalf("Count() = %d, want 1", n)
	}
}
