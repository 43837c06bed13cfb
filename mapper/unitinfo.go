package mapper

import (
	"fmt"

	"arf/arferr"
	"arf/unitspec"
)

// ModAssocKind tags the shape of a UnitInfo's modifier associativity data,
// per spec.md section 4.5.
type ModAssocKind int

const (
	// ModAssocNone applies to units that are neither TX modifiers nor TX
	// subjects (globals, scope controllers).
	ModAssocNone ModAssocKind = iota
	// ModAssocModifier applies to TX MODIFIER units: ModifierID holds the
	// id assigned by the mapper at map time.
	ModAssocModifier
	// ModAssocSubject applies to TX SUBJECT units: SubjectSnapshot holds
	// the modifier-next-id vector as of map time.
	ModAssocSubject
)

// ModAssoc is a unit's modifier-associativity data. Which fields are
// meaningful depends on Kind.
type ModAssoc struct {
	Kind ModAssocKind

	// ModifierID is valid when Kind == ModAssocModifier.
	ModifierID uint32

	// SubjectSnapshot is valid when Kind == ModAssocSubject: indexed by
	// ARFSpec.ModifierIndex position, each entry is the next id that would
	// be assigned to a modifier of that type at the time this subject was
	// mapped.
	SubjectSnapshot []uint32
}

// UnitInfo is the mapper's per-live-unit metadata record, per spec.md
// section 3/4.5. It carries a non-owning reference back to its mapper
// (spec.md section 9's guidance against owning cyclic references) so piece
// access can fall back to a storage read when the piece wasn't cached.
type UnitInfo struct {
	StoreID uint64
	// TxScope is nil for GLOBAL-scope units, else the owning transaction
	// scope id.
	TxScope  *uint16
	Type     *unitspec.UnitType
	Cached   map[string]any
	ModAssoc ModAssoc

	mapper *Mapper
}

// TypeID is the unit's typeid byte.
func (ui *UnitInfo) TypeID() byte {
	return ui.Type.TypeID
}

// Piece resolves a piece's decoded value, per the access contract of
// spec.md section 4.5: the cached value if available, else a single-piece
// storage read.
func (ui *UnitInfo) Piece(name string) (any, error) {
	if ui.Cached != nil {
		if v, ok := ui.Cached[name]; ok {
			return v, nil
		}
	}
	u, err := ui.mapper.storage.Read(ui.StoreID, name)
	if err != nil {
		return nil, err
	}
	return u.Get(name)
}

// Unit reconstructs the full unit by reading every piece from storage.
func (ui *UnitInfo) Unit() (*unitspec.Unit, error) {
	return ui.mapper.storage.Read(ui.StoreID)
}

// ModifierID returns the mod-id assigned to this unit. It fails with
// ErrType unless the unit is a TX MODIFIER.
func (ui *UnitInfo) ModifierID() (uint32, error) {
	if ui.ModAssoc.Kind != ModAssocModifier {
		return 0, fmt.Errorf("%w: unit %d is not a modifier", arferr.ErrType, ui.StoreID)
	}
	return ui.ModAssoc.ModifierID, nil
}

// ApplicableModifier returns the mod-id of the modifierType-typed modifier
// currently associated with this subject, per REFRESHING semantics: the
// most recently assigned modifier of that type as of map time. It fails
// with ErrType unless the unit is a TX SUBJECT, and with ErrLookup if no
// modifier of that type had been selected yet.
func (ui *UnitInfo) ApplicableModifier(modifierType *unitspec.UnitType) (uint32, error) {
	if ui.ModAssoc.Kind != ModAssocSubject {
		return 0, fmt.Errorf("%w: unit %d is not a subject", arferr.ErrType, ui.StoreID)
	}
	idx, ok := ui.mapper.spec.ModifierIndex(modifierType)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a registered modifier type", arferr.ErrLookup, modifierType.Name)
	}
	if idx >= len(ui.ModAssoc.SubjectSnapshot) || ui.ModAssoc.SubjectSnapshot[idx] == 0 {
		return 0, fmt.Errorf("%w: no %s modifier applicable to unit %d", arferr.ErrLookup, modifierType.Name, ui.StoreID)
	}
	return ui.ModAssoc.SubjectSnapshot[idx] - 1, nil
}
