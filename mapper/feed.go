package mapper

import "iter"

// Feed is a subscriber to mapper growth and deletion events, per spec.md
// section 4.5. RecvExtend is called at most once per Sync call that maps
// new ids, with LastSyncID already advanced past the delivered ids by the
// time the callback runs. RecvDelete is called synchronously from
// Mapper.Discard for any id the feed has already observed.
type Feed struct {
	LastSyncID uint64
	RecvExtend func(iter.Seq2[uint64, *UnitInfo])
	RecvDelete func(uint64)
}
