// Package datadef implements ARF's L1 layer: declarative, self-contained
// binary codecs for unit pieces.
//
// Each DataDef is a pure codec: Pack validates then serializes, Unpack
// deserializes then validates. A piece's wire length is either fixed, or
// variable and determined at runtime by the decoded value of another
// DataDef (always a UInt kind, per spec.md's "length-type" rule).
package datadef

import (
	"fmt"

	"arf/arferr"
)

// DataDef is the codec contract every piece type implements.
type DataDef interface {
	// ByteLength reports a fixed wire width, or (-1, lengthType) if the
	// piece's width is variable and determined by decoding lengthType
	// first.
	ByteLength() (fixed int, lengthType DataDef)

	// Validate reports whether v is a legal decoded value for this DataDef.
	Validate(v any) error

	// Pack validates then serializes v. It must not return partial bytes
	// on error.
	Pack(v any) ([]byte, error)

	// Unpack deserializes then validates b, which must be exactly the
	// piece's fixed width (callers resolve variable width beforehand).
	Unpack(b []byte) (any, error)
}

// invalidValue wraps arferr.ErrInvalidValue with context.
func invalidValue(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{arferr.ErrInvalidValue}, args...)...)
}

// formatErr wraps arferr.ErrUnitDataFormat with context.
func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{arferr.ErrUnitDataFormat}, args...)...)
}

// IsVariable reports whether dd has a runtime-determined wire width.
func IsVariable(dd DataDef) bool {
	fixed, _ := dd.ByteLength()
	return fixed < 0
}

// WireLength returns the number of bytes dd occupies once value is packed,
// including any variable-length prefix.
func WireLength(dd DataDef, value any) (int, error) {
	fixed, lengthType := dd.ByteLength()
	if fixed >= 0 {
		return fixed, nil
	}
	packed, err := dd.Pack(value)
	if err != nil {
		return 0, err
	}
	prefixLen, _ := lengthType.ByteLength()
	return prefixLen + len(packed), nil
}
