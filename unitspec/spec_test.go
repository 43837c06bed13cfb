package unitspec

import (
	"errors"
	"testing"

	"arf/arferr"
	"arf/datadef"
)

func TestBaseRegistersBuiltins(t *testing.T) {
	ut, err := Base.Lookup(6)
	if err != nil {
		t.Fatalf("Lookup(6): %v", err)
	}
	if ut != StrandWriteDataBlock {
		t.Fatalf("Lookup(6) = %v, want StrandWriteDataBlock", ut.Name)
	}
	byName, err := Base.ReverseLookup("StrandWriteDataBlock")
	if err != nil {
		t.Fatalf("ReverseLookup: %v", err)
	}
	if byName != StrandWriteDataBlock {
		t.Fatalf("ReverseLookup mismatch")
	}
}

func TestInheritIsolatesChild(t *testing.T) {
	child := Base.Inherit()
	custom := &UnitType{
		Name:   "Custom",
		TypeID: 128,
		Pieces: []PieceDef{{"typeid", datadef.UnitTypeID}},
		Grammar: GrammarSubject, Scope: ScopeGlobal, Persistence: PersistenceRefreshing,
	}
	if err := child.Register(custom); err != nil {
		t.Fatalf("Register on child: %v", err)
	}
	if _, err := Base.Lookup(128); !errors.Is(err, arferr.ErrLookup) {
		t.Fatalf("expected parent spec to be unaffected, got %v", err)
	}
	if _, err := child.Lookup(128); err != nil {
		t.Fatalf("expected child to carry the new type: %v", err)
	}
}

func TestRegisterRejectsBuiltinRangeOnAppSpec(t *testing.T) {
	app := NewAppSpec()
	bad := &UnitType{
		Name:   "Bad",
		TypeID: 50,
		Pieces: []PieceDef{{"typeid", datadef.UnitTypeID}},
		Grammar: GrammarSubject, Scope: ScopeGlobal, Persistence: PersistenceRefreshing,
	}
	if err := app.Register(bad); !errors.Is(err, arferr.ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
}

func TestModifierIndexOrdersByRegistration(t *testing.T) {
	idxFinalize, ok := Base.ModifierIndex(TxScopeFinalize)
	if !ok {
		t.Fatalf("expected TxScopeFinalize to be indexed")
	}
	idxSelect, ok := Base.ModifierIndex(StrandSelect)
	if !ok {
		t.Fatalf("expected StrandSelect to be indexed")
	}
	if idxFinalize == idxSelect {
		t.Fatalf("distinct modifier types must have distinct indices")
	}
}

func TestNewFillsTypeIDAutomatically(t *testing.T) {
	u, err := Base.New(StrandWriteDataBlock, uint64(10), []byte{1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := u.Get("typeid")
	if err != nil {
		t.Fatalf("Get(typeid): %v", err)
	}
	if got.(uint64) != uint64(StrandWriteDataBlock.TypeID) {
		t.Fatalf("typeid = %v, want %d", got, StrandWriteDataBlock.TypeID)
	}
}

func TestNewRejectsWrongPieceCount(t *testing.T) {
	if _, err := Base.New(StrandWriteDataBlock, uint64(10)); !errors.Is(err, arferr.ErrUnitDataFormat) {
		t.Fatalf("expected ErrUnitDataFormat, got %v", err)
	}
}
