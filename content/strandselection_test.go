package content

import (
	"arf/mapper"
	"arf/unitspec"
	"testing"
)

func TestStrandCompositeSelectionPointAndGroup(t *testing.T) {
	sel := NewStrandCompositeSelection()

	point := &mapper.UnitInfo{Type: unitspec.StrandSelect, Cached: map[string]any{"strd-id": uint64(42)}}
	if err := sel.Add(point); err != nil {
		t.Fatalf("Add(point): %v", err)
	}

	group := &mapper.UnitInfo{Type: unitspec.StrandGroupSelect, Cached: map[string]any{
		"strd-group": uint64(8), "strd-group-mag": uint64(2),
	}}
	if err := sel.Add(group); err != nil {
		t.Fatalf("Add(group): %v", err)
	}

	if !sel.Contains(42) {
		t.Fatalf("expected strand 42 (exact point select) to be contained")
	}
	if !sel.Contains(9) {
		t.Fatalf("expected strand 9 (within group [8,12)) to be contained")
	}
	if sel.Contains(100) {
		t.Fatalf("strand 100 is outside both selections and should not be contained")
	}
}

func TestStrandCompositeSelectionRejectsOtherTypes(t *testing.T) {
	sel := NewStrandCompositeSelection()
	bad := &mapper.UnitInfo{Type: unitspec.StrandWriteDataBlock}
	if err := sel.Add(bad); err == nil {
		t.Fatalf("expected an error adding a non-selector unit type")
	}
}
