package unitspec

import "arf/datadef"

// PieceDef names one piece of a unit type's binary layout.
type PieceDef struct {
	Name  string
	Codec datadef.DataDef
}

// UnitType is the declarative description of one unit's binary layout and
// transactional role. It is the Go-idiomatic replacement for the Python
// source's metaclass-built data_spec/piece_names: one ordered table built
// once at registration time, per spec.md section 9's design note.
type UnitType struct {
	Name        string
	TypeID      byte
	Pieces      []PieceDef
	Cached      []string // always normalized to a list, even for one name
	Grammar     Grammar
	Scope       Scope
	Persistence Persistence

	// StrandSelector names the modifier unit type that qualifies a subject
	// of this type (e.g. StrandWriteDataBlock's selector is StrandSelect).
	// Nil if this unit type has no strand selector.
	StrandSelector *UnitType

	pieceIndex map[string]int
}

// build finalizes the piece-name -> index lookup. Called once by Register.
func (ut *UnitType) build() error {
	ut.pieceIndex = make(map[string]int, len(ut.Pieces))
	for i, p := range ut.Pieces {
		ut.pieceIndex[p.Name] = i
	}
	if len(ut.Pieces) == 0 || ut.Pieces[0].Name != "typeid" {
		return errNotFirstPiece(ut.Name)
	}
	if len(ut.Cached) == 0 {
		return nil
	}
	for _, c := range ut.Cached {
		if _, ok := ut.pieceIndex[c]; !ok {
			return errUnknownCachedPiece(ut.Name, c)
		}
	}
	return nil
}

// PieceIndex resolves a piece name to its index in Pieces.
func (ut *UnitType) PieceIndex(name string) (int, bool) {
	i, ok := ut.pieceIndex[name]
	return i, ok
}

// IsCached reports whether piece name is retained in UnitInfo.Cached by the
// mapper.
func (ut *UnitType) IsCached(name string) bool {
	for _, c := range ut.Cached {
		if c == name {
			return true
		}
	}
	return false
}

// IsTXModifier reports whether this unit type is a TX-scoped MODIFIER.
func (ut *UnitType) IsTXModifier() bool {
	return ut.Scope == ScopeTX && ut.Grammar == GrammarModifier
}

// IsTXSubject reports whether this unit type is a TX-scoped SUBJECT.
func (ut *UnitType) IsTXSubject() bool {
	return ut.Scope == ScopeTX && ut.Grammar == GrammarSubject
}
