package unitspec

import "arf/datadef"

// Built-in unit types, per spec.md section 3's table. Registered on Base at
// package init so every ARFSpec derived via Base.Inherit() carries them.
var (
	TxScopeMarker        *UnitType
	TxScopeFinalize      *UnitType
	StrandSelect         *UnitType
	StrandGroupSelect    *UnitType
	StrandWriteDataBlock *UnitType
	StrandCreate         *UnitType
	StrandDiscard        *UnitType
)

// Base is the ARFSpec carrying the seven built-in unit types. Application
// code extends it via Base.Inherit() and registers its own types in the
// [128,256) range.
var Base *ARFSpec

func init() {
	Base = newSpec(true)

	TxScopeMarker = &UnitType{
		Name:   "TxScopeMarker",
		TypeID: 2,
		Pieces: []PieceDef{
			{"typeid", datadef.UnitTypeID},
			{"prev-txs", datadef.TxScopeID},
			{"next-txs", datadef.TxScopeID},
		},
		Grammar:     GrammarScopeController,
		Scope:       ScopeGlobal,
		Persistence: PersistenceElapsing,
	}
	mustRegister(Base, TxScopeMarker)

	TxScopeFinalize = &UnitType{
		Name:   "TxScopeFinalize",
		TypeID: 3,
		Pieces: []PieceDef{
			{"typeid", datadef.UnitTypeID},
			{"is-commit", datadef.Bool},
		},
		Grammar:     GrammarModifier,
		Scope:       ScopeTX,
		Persistence: PersistenceElapsing,
	}
	mustRegister(Base, TxScopeFinalize)

	StrandSelect = &UnitType{
		Name:   "StrandSelect",
		TypeID: 4,
		Pieces: []PieceDef{
			{"typeid", datadef.UnitTypeID},
			{"strd-id", datadef.StrandID},
		},
		Cached:      []string{"strd-id"},
		Grammar:     GrammarModifier,
		Scope:       ScopeTX,
		Persistence: PersistenceRefreshing,
	}
	mustRegister(Base, StrandSelect)

	StrandGroupSelect = &UnitType{
		Name:   "StrandGroupSelect",
		TypeID: 5,
		Pieces: []PieceDef{
			{"typeid", datadef.UnitTypeID},
			{"strd-group", datadef.StrandID},
			{"strd-group-mag", datadef.StrandGroupMagnitude},
		},
		Cached:      []string{"strd-group", "strd-group-mag"},
		Grammar:     GrammarModifier,
		Scope:       ScopeTX,
		Persistence: PersistenceRefreshing,
	}
	mustRegister(Base, StrandGroupSelect)

	StrandWriteDataBlock = &UnitType{
		Name:   "StrandWriteDataBlock",
		TypeID: 6,
		Pieces: []PieceDef{
			{"typeid", datadef.UnitTypeID},
			{"offset", datadef.StrandSize},
			{"data", datadef.StrandData},
		},
		Cached:         []string{"offset"},
		Grammar:        GrammarSubject,
		Scope:          ScopeTX,
		Persistence:    PersistenceRefreshing,
		StrandSelector: StrandSelect,
	}
	mustRegister(Base, StrandWriteDataBlock)

	StrandCreate = &UnitType{
		Name:   "StrandCreate",
		TypeID: 7,
		Pieces: []PieceDef{
			{"typeid", datadef.UnitTypeID},
			{"strd-size-bytes", datadef.StrandSize},
		},
		Cached:         []string{"strd-size-bytes"},
		Grammar:        GrammarSubject,
		Scope:          ScopeTX,
		Persistence:    PersistenceRefreshing,
		StrandSelector: StrandSelect,
	}
	mustRegister(Base, StrandCreate)

	StrandDiscard = &UnitType{
		Name:   "StrandDiscard",
		TypeID: 8,
		Pieces: []PieceDef{
			{"typeid", datadef.UnitTypeID},
		},
		Grammar:        GrammarSubject,
		Scope:          ScopeTX,
		Persistence:    PersistenceElapsing,
		StrandSelector: StrandGroupSelect,
	}
	mustRegister(Base, StrandDiscard)
}

func mustRegister(s *ARFSpec, ut *UnitType) {
	if err := s.Register(ut); err != nil {
		panic(err)
	}
}
