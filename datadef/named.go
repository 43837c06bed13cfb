package datadef

// Named subtypes from spec.md section 3. Each wraps a base kind with its
// own identity so the unit spec layer can special-case them (e.g.
// UnitTypeID's reserved subranges) without string-matching on type names.

// unitTypeIDKind is the 8-bit typeid DataDef. Reserved subranges (0..1
// deleted, 2..127 ARF-built-in, 128..255 application-defined) are enforced
// by unitspec at registration time, not here: a bare UnitTypeID piece
// accepts any byte value, consistent with it doubling as the deleted-marker
// byte.
type unitTypeIDKind struct{ UInt }

// UnitTypeID is the DataDef for the first piece of every unit.
var UnitTypeID DataDef = unitTypeIDKind{NewUInt(8)}

const (
	DeletedRangeLo           = 0
	DeletedRangeHi           = 2
	BuiltinRangeLo           = 2
	BuiltinRangeHi           = 128
	ApplicationDefinedRangeLo = 128
	ApplicationDefinedRangeHi = 256
)

// TxScopeID is the 16-bit transaction scope identifier.
var TxScopeID DataDef = NewUInt(16)

// StrandID is the 64-bit strand identifier.
var StrandID DataDef = NewUInt(64)

// StrandSize is a 64-bit byte count for a strand.
var StrandSize DataDef = NewUInt(64)

// StrandGroupMagnitude is the group-selection magnitude, valid in [1,65).
var StrandGroupMagnitude DataDef = NewRangedUInt(1, 65)

// StrandDataLength is the length prefix for StrandData, valid in [1,513).
var StrandDataLength DataDef = NewRangedUInt(1, 513)

// StrandData is a variable-length byte blob length-bound by
// StrandDataLength.
var StrandData DataDef = NewVariableByteData(StrandDataLength)
