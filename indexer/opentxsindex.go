package indexer

import (
	"arf/index"
	"arf/mapper"
)

// OpenTXsIndex indexes every live TX unit by (txs, type), per spec.md
// section 4.9, so the Indexer can collect an entire transaction scope's
// units in one shot when its TxScopeFinalize arrives.
type OpenTXsIndex struct {
	idx *index.ARFMapperIndex
	m   *mapper.Mapper
}

// NewOpenTXsIndex builds an OpenTXsIndex over m, covering every TX-scoped
// unit (subjects, modifiers, and TxScopeFinalize itself).
func NewOpenTXsIndex(m *mapper.Mapper) *OpenTXsIndex {
	idx := index.NewARFMapperIndex(m, []index.KeyDef{index.TxsKey(), index.TypeKey()}, false,
		func(info *mapper.UnitInfo) bool { return info.TxScope != nil })
	return &OpenTXsIndex{idx: idx, m: m}
}

// MaybeAddUnit indexes info if it is TX-scoped.
func (o *OpenTXsIndex) MaybeAddUnit(info *mapper.UnitInfo) error {
	return o.idx.MaybeAddUnit(info)
}

// DiscardUnit removes id from the index.
func (o *OpenTXsIndex) DiscardUnit(id uint64) {
	o.idx.DiscardUnit(id)
}

// CollectAndRemove resolves every unit currently indexed under txs,
// removes them from the index, and returns them in ascending store-id
// order.
func (o *OpenTXsIndex) CollectAndRemove(txs uint16) ([]*mapper.UnitInfo, error) {
	ids, err := o.idx.IterWithConstraints(map[string]index.Constraint{
		"txs": index.Key(uint64(txs)),
	})
	if err != nil {
		return nil, err
	}
	var collected []*mapper.UnitInfo
	for id := range ids {
		info, err := o.m.Get(id)
		if err != nil {
			continue
		}
		collected = append(collected, info)
	}
	for _, info := range collected {
		o.idx.DiscardUnit(info.StoreID)
	}
	return collected, nil
}
