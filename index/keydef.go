// Package index implements ARF's L5a layer: keyed indexes over mapper
// rows (ARFMapperIndex) and a composable query pipeline over them.
package index

import (
	"arf/mapper"
)

// KeyDef names one level of an ARFMapperIndex's key hierarchy. Sliceable
// levels are backed by a sliceable ordered container supporting half-open
// range constraints; non-sliceable levels are backed by a hash map.
//
// Extract resolves a unit's value at this level. When nil, it defaults to
// reading the piece named Name (UnitInfo.Piece), which covers the common
// case of indexing by a cached or storage piece value directly. Composite
// key levels such as "txs" or "type" (not themselves piece names) set
// Extract explicitly.
type KeyDef struct {
	Name      string
	Sliceable bool
	Extract   func(*mapper.UnitInfo) (any, error)
}

// PieceKey builds a KeyDef over a unit's named piece value.
func PieceKey(name string, sliceable bool) KeyDef {
	return KeyDef{Name: name, Sliceable: sliceable}
}

// TxsKey builds a KeyDef over a unit's owning transaction scope. Units
// with no open scope (GLOBAL) never satisfy this key.
func TxsKey() KeyDef {
	return KeyDef{
		Name:      "txs",
		Sliceable: true,
		Extract: func(info *mapper.UnitInfo) (any, error) {
			if info.TxScope == nil {
				return nil, errNoTxScope
			}
			return uint64(*info.TxScope), nil
		},
	}
}

// TypeKey builds a KeyDef over a unit's UnitType.
func TypeKey() KeyDef {
	return KeyDef{
		Name: "type",
		Extract: func(info *mapper.UnitInfo) (any, error) {
			return info.Type, nil
		},
	}
}

// ModIDKey builds a KeyDef over a TX MODIFIER unit's assigned mod-id.
func ModIDKey() KeyDef {
	return KeyDef{
		Name:      "mod_id",
		Sliceable: true,
		Extract: func(info *mapper.UnitInfo) (any, error) {
			id, err := info.ModifierID()
			if err != nil {
				return nil, err
			}
			return uint64(id), nil
		},
	}
}
