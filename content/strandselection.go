package content

import (
	"fmt"

	"arf/arferr"
	"arf/mapper"
	"arf/unitspec"
)

// StrandCompositeSelection accumulates the strand-id ranges contributed by
// a sequence of StrandSelect/StrandGroupSelect units (e.g. the selectors
// active within a transaction scope), per spec.md section 4.8/testable
// property 11.
type StrandCompositeSelection struct {
	ranges [][2]uint64
}

// NewStrandCompositeSelection returns an empty selection.
func NewStrandCompositeSelection() *StrandCompositeSelection {
	return &StrandCompositeSelection{}
}

// Add folds a StrandSelect or StrandGroupSelect unit's coverage into the
// selection.
func (s *StrandCompositeSelection) Add(info *mapper.UnitInfo) error {
	switch info.Type {
	case unitspec.StrandSelect:
		v, err := info.Piece("strd-id")
		if err != nil {
			return err
		}
		strand := v.(uint64)
		s.ranges = append(s.ranges, [2]uint64{strand, strand + 1})

	case unitspec.StrandGroupSelect:
		group, err := info.Piece("strd-group")
		if err != nil {
			return err
		}
		mag, err := info.Piece("strd-group-mag")
		if err != nil {
			return err
		}
		s.ranges = append(s.ranges, groupRange(group.(uint64), mag.(uint64)))

	default:
		return fmt.Errorf("%w: %s cannot contribute to a strand selection", arferr.ErrType, info.Type.Name)
	}
	return nil
}

// Contains reports whether strand falls within any range folded into s.
func (s *StrandCompositeSelection) Contains(strand uint64) bool {
	for _, r := range s.ranges {
		if inRange(strand, r) {
			return true
		}
	}
	return false
}
