package content

import (
	"fmt"

	"arf/arferr"
	"arf/mapper"
	"arf/unitspec"
)

// ContentOrder totally orders subjects for Content.Iter, per spec.md
// section 4.7: committed subjects order by (finalize store id, subject
// store id); FinalizeID is 0 for a not-yet-committed candidate content, in
// which case the ordering degenerates to plain subject store-id order.
// A single Content never mixes the two (MergeIn panics if asked to).
type ContentOrder struct {
	FinalizeID uint64
	SubjectID  uint64
}

// Less reports whether o sorts before other.
func (o ContentOrder) Less(other ContentOrder) bool {
	if o.FinalizeID != other.FinalizeID {
		return o.FinalizeID < other.FinalizeID
	}
	return o.SubjectID < other.SubjectID
}

// ResolveModifierFunc resolves the applicable modifier of modType for a
// subject in txs, given its mod-id.
type ResolveModifierFunc func(modType *unitspec.UnitType, modID uint32) (*mapper.UnitInfo, error)

// SubjectWithContext binds a TX SUBJECT UnitInfo with its exact applicable
// modifiers, per spec.md section 4.7. Strand-bearing subjects (those whose
// StrandSelector is StrandSelect) carry a resolved Strand id; StrandDiscard
// carries a DiscardRange instead, derived from its StrandGroupSelect.
type SubjectWithContext struct {
	Info         *mapper.UnitInfo
	ContentOrder ContentOrder

	HasStrand bool
	Strand    uint64

	HasDiscardRange bool
	DiscardRange    [2]uint64

	modifiers map[*unitspec.UnitType]*mapper.UnitInfo
}

// NewSubjectWithContext builds a SubjectWithContext for info, resolving its
// selector modifier (if any) via resolve. finalizeID is 0 for a not-yet-
// committed candidate.
func NewSubjectWithContext(info *mapper.UnitInfo, finalizeID uint64, resolve ResolveModifierFunc) (*SubjectWithContext, error) {
	if !info.Type.IsTXSubject() {
		return nil, fmt.Errorf("%w: unit %d is not a TX subject", arferr.ErrType, info.StoreID)
	}

	sc := &SubjectWithContext{
		Info:         info,
		ContentOrder: ContentOrder{FinalizeID: finalizeID, SubjectID: info.StoreID},
	}

	sel := info.Type.StrandSelector
	if sel == nil {
		return sc, nil
	}

	modID, err := info.ApplicableModifier(sel)
	if err != nil {
		return nil, err
	}
	modInfo, err := resolve(sel, modID)
	if err != nil {
		return nil, err
	}
	sc.modifiers = map[*unitspec.UnitType]*mapper.UnitInfo{sel: modInfo}

	switch sel {
	case unitspec.StrandSelect:
		v, err := modInfo.Piece("strd-id")
		if err != nil {
			return nil, err
		}
		sc.Strand = v.(uint64)
		sc.HasStrand = true

	case unitspec.StrandGroupSelect:
		group, err := modInfo.Piece("strd-group")
		if err != nil {
			return nil, err
		}
		mag, err := modInfo.Piece("strd-group-mag")
		if err != nil {
			return nil, err
		}
		sc.DiscardRange = groupRange(group.(uint64), mag.(uint64))
		sc.HasDiscardRange = true
	}

	return sc, nil
}

// Modifiers iterates the resolved modifiers backing this subject's context.
func (sc *SubjectWithContext) Modifiers() map[*unitspec.UnitType]*mapper.UnitInfo {
	return sc.modifiers
}
