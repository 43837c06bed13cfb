package storage

import (
	"fmt"
	"iter"

	"arf/arferr"
	"arf/unitspec"
)

// SequentialStorage is an ordered mapping from monotonically increasing
// store-id (>=1) to either a unit record or logical-deleted state, per
// spec.md section 3. IDs are never reused and a record, once appended, is
// fixed in size for its lifetime.
type SequentialStorage interface {
	// Append serializes unit to a new record and returns its assigned id.
	Append(unit *unitspec.Unit) (uint64, error)

	// Read decodes the record at id. selectNames, if given, restricts which
	// pieces are actually read. Returns arferr.ErrDeleted if the record was
	// discarded, or arferr.ErrUnknownID if id was never appended.
	Read(id uint64, selectNames ...string) (*unitspec.Unit, error)

	// MultiReadIter lazily iterates (id, unit) pairs at or after startID, in
	// id order, skipping deleted records.
	MultiReadIter(startID uint64, selectNames ...string) iter.Seq2[uint64, *unitspec.Unit]

	// Discard logically deletes the record at id. Discarding an
	// already-deleted id is a no-op, per spec.md section 7.
	Discard(id uint64) error

	// Contains reports whether id was ever appended and is not deleted.
	Contains(id uint64) bool

	// NextID reports the id that will be assigned to the next Append.
	NextID() uint64
}

func errUnknownID(id uint64) error {
	return fmt.Errorf("%w: store id %d", arferr.ErrUnknownID, id)
}

func errDeleted(id uint64) error {
	return fmt.Errorf("%w: store id %d", arferr.ErrDeleted, id)
}
