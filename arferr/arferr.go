// Package arferr centralizes the sentinel error kinds shared by every ARF
// layer, following the same flat, import-everywhere convention as the
// teacher's models.errors package.
package arferr

import "errors"

var (
	// ErrUnitDataFormat marks a wire-format violation: truncated input, an
	// invalid enum byte, or a misaligned variable-length prefix.
	ErrUnitDataFormat = errors.New("arf: unit data format error")

	// ErrInvalidValue marks a value that failed a DataDef's validator at
	// encode time.
	ErrInvalidValue = errors.New("arf: invalid value")

	// ErrLookup marks an unknown typeid, missing store id, or missing index key.
	ErrLookup = errors.New("arf: lookup error")

	// ErrType marks a grammar/scope/shape mismatch, e.g. requesting the
	// applicable modifiers of a non-subject unit.
	ErrType = errors.New("arf: type error")

	// ErrOrdering marks an id inserted out of monotonic order, or an
	// iterator used against a concurrently mutated container.
	ErrOrdering = errors.New("arf: ordering error")

	// ErrConflictingContent marks occluded subjects detected while
	// constructing a Content directly from user-supplied units.
	ErrConflictingContent = errors.New("arf: conflicting content")

	// ErrResourceExhausted marks an inability to allocate a resource, e.g.
	// no unused TxScopeID remains under the open-scope bound.
	ErrResourceExhausted = errors.New("arf: resource exhausted")

	// ErrDeleted marks a read of a logically-deleted storage record.
	ErrDeleted = errors.New("arf: record deleted")

	// ErrUnknownID marks a reference to a store id that was never appended.
	ErrUnknownID = errors.New("arf: unknown store id")

	// ErrConcurrentMutation marks a mutation attempted while the core's
	// single-goroutine contract is known to be violated (e.g. discard
	// during an active sync).
	ErrConcurrentMutation = errors.New("arf: concurrent mutation")

	// ErrNotSliceable marks a range constraint applied to a keydef that was
	// not declared sliceable.
	ErrNotSliceable = errors.New("arf: keydef is not sliceable")

	// ErrNotCommittable marks an attempt to build a Content (and so any
	// SubjectWithContext) from a release-only (non-committed) transaction
	// scope.
	ErrNotCommittable = errors.New("arf: transaction was released, not committed")
)
