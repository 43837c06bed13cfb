package unitspec

import (
	"fmt"

	"arf/arferr"
	"arf/datadef"
)

// ARFSpec is the indexed typeid <-> UnitType catalog, per spec.md section
// 4.2. Registration is governed by typeid subrange: built-in types must
// register in [2,128), application-defined types in [128,256).
type ARFSpec struct {
	byID       map[byte]*UnitType
	byName     map[string]*UnitType
	modOrder   []*UnitType // TX modifier types, in registration order
	allowBuiltin bool
}

// newSpec creates an empty ARFSpec. allowBuiltinRange should be true only
// for the package-internal call that builds Base.
func newSpec(allowBuiltinRange bool) *ARFSpec {
	return &ARFSpec{
		byID:         make(map[byte]*UnitType),
		byName:       make(map[string]*UnitType),
		allowBuiltin: allowBuiltinRange,
	}
}

// NewAppSpec creates an empty ARFSpec for application-defined unit types
// (typeid range [128,256) only).
func NewAppSpec() *ARFSpec {
	return newSpec(false)
}

// Inherit returns a new ARFSpec carrying all of s's entries, which the
// caller may extend with additional application-defined types. Mutating
// the child never affects the parent.
func (s *ARFSpec) Inherit() *ARFSpec {
	child := newSpec(false)
	for id, ut := range s.byID {
		child.byID[id] = ut
	}
	for name, ut := range s.byName {
		child.byName[name] = ut
	}
	child.modOrder = append([]*UnitType(nil), s.modOrder...)
	return child
}

// Register adds ut to the catalog under ut.TypeID, validating its typeid
// falls in the caller's permitted range.
func (s *ARFSpec) Register(ut *UnitType) error {
	if err := datadef.UnitTypeID.Validate(uint64(ut.TypeID)); err != nil {
		return err
	}
	id := int(ut.TypeID)
	inBuiltinRange := id >= datadef.BuiltinRangeLo && id < datadef.BuiltinRangeHi
	inAppRange := id >= datadef.ApplicationDefinedRangeLo && id < datadef.ApplicationDefinedRangeHi
	switch {
	case inBuiltinRange && !s.allowBuiltin:
		return fmt.Errorf("%w: typeid %d is in the ARF-reserved range; application code must register in [128,256)", arferr.ErrType, id)
	case !inBuiltinRange && !inAppRange:
		return fmt.Errorf("%w: typeid %d is in the reserved-deleted range [0,2)", arferr.ErrType, id)
	}
	if _, exists := s.byID[ut.TypeID]; exists {
		return fmt.Errorf("%w: typeid %d already registered", arferr.ErrType, id)
	}
	if _, exists := s.byName[ut.Name]; exists {
		return fmt.Errorf("%w: unit type name %q already registered", arferr.ErrType, ut.Name)
	}
	if err := ut.build(); err != nil {
		return err
	}
	s.byID[ut.TypeID] = ut
	s.byName[ut.Name] = ut
	if ut.IsTXModifier() {
		s.modOrder = append(s.modOrder, ut)
	}
	return nil
}

// Lookup resolves a typeid to its UnitType.
func (s *ARFSpec) Lookup(typeID byte) (*UnitType, error) {
	ut, ok := s.byID[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown typeid %d", arferr.ErrLookup, typeID)
	}
	return ut, nil
}

// ReverseLookup resolves a unit type name to its UnitType.
func (s *ARFSpec) ReverseLookup(name string) (*UnitType, error) {
	ut, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown unit type %q", arferr.ErrLookup, name)
	}
	return ut, nil
}

// TypeIDs iterates all registered typeids.
func (s *ARFSpec) TypeIDs() []byte {
	ids := make([]byte, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	return ids
}

// ModifierTypes returns the registered TX modifier types in registration
// order. This order fixes the mapper's per-txs modifier-id layout, per
// spec.md section 4.2.
func (s *ARFSpec) ModifierTypes() []*UnitType {
	return append([]*UnitType(nil), s.modOrder...)
}

// ModifierIndex returns ut's position in ModifierTypes(), used to index
// Mapper.mod_next_ids_per_txs vectors.
func (s *ARFSpec) ModifierIndex(ut *UnitType) (int, bool) {
	for i, m := range s.modOrder {
		if m == ut {
			return i, true
		}
	}
	return 0, false
}

// New constructs a Unit of unitType from decoded piece values, excluding
// the typeid (which is filled in automatically as the first piece).
func (s *ARFSpec) New(unitType *UnitType, pieces ...any) (*Unit, error) {
	if _, ok := s.byID[unitType.TypeID]; !ok {
		return nil, fmt.Errorf("%w: unit type %q is not registered on this spec", arferr.ErrLookup, unitType.Name)
	}
	all := make([]any, 0, len(pieces)+1)
	all = append(all, uint64(unitType.TypeID))
	all = append(all, pieces...)
	return newUnit(unitType, all)
}
