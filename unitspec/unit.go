package unitspec

import (
	"fmt"

	"arf/arferr"
)

func errNotFirstPiece(name string) error {
	return fmt.Errorf("%w: unit type %q must declare typeid as its first piece", arferr.ErrType, name)
}

func errUnknownCachedPiece(unitName, piece string) error {
	return fmt.Errorf("%w: unit type %q declares unknown cached piece %q", arferr.ErrType, unitName, piece)
}

func errWrongPieceCount(name string, want, got int) error {
	return fmt.Errorf("%w: unit type %q expects %d pieces, got %d", arferr.ErrUnitDataFormat, name, want, got)
}

// Unit is one typed, ordered tuple of decoded piece values, per spec.md
// section 3. Pieces[0] is always the typeid.
type Unit struct {
	Type   *UnitType
	Pieces []any
}

// newUnit validates and constructs a Unit from decoded piece values in
// Type.Pieces order (including the typeid piece).
func newUnit(ut *UnitType, pieces []any) (*Unit, error) {
	if len(pieces) != len(ut.Pieces) {
		return nil, errWrongPieceCount(ut.Name, len(ut.Pieces), len(pieces))
	}
	for i, pd := range ut.Pieces {
		if err := pd.Codec.Validate(pieces[i]); err != nil {
			return nil, err
		}
	}
	cp := make([]any, len(pieces))
	copy(cp, pieces)
	return &Unit{Type: ut, Pieces: cp}, nil
}

// Get resolves a piece by name.
func (u *Unit) Get(name string) (any, error) {
	i, ok := u.Type.PieceIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: unit type %q has no piece %q", arferr.ErrLookup, u.Type.Name, name)
	}
	return u.Pieces[i], nil
}

// MustGet resolves a piece by name, panicking on an unknown name. Intended
// for use sites that already know the unit type statically.
func (u *Unit) MustGet(name string) any {
	v, err := u.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}
