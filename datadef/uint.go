package datadef

import "fmt"

// UInt is a fixed-width little-endian unsigned integer codec. Decoded
// values are represented as uint64 regardless of bit width.
type UInt struct {
	// BitLength is the integer's width in bits; ByteLength is ceil(bits/8).
	BitLength int
}

// NewUInt constructs a UInt of the given bit width.
func NewUInt(bitLength int) UInt {
	if bitLength <= 0 {
		panic("datadef: UInt bit length must be positive")
	}
	return UInt{BitLength: bitLength}
}

var (
	UInt8Kind  = NewUInt(8)
	UInt16Kind = NewUInt(16)
	UInt32Kind = NewUInt(32)
	UInt64Kind = NewUInt(64)
)

func (u UInt) ByteLength() (int, DataDef) {
	return (u.BitLength-1)/8 + 1, nil
}

func (u UInt) max() uint64 {
	if u.BitLength >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(u.BitLength)) - 1
}

func (u UInt) Validate(v any) error {
	n, ok := asUint64(v)
	if !ok {
		return invalidValue("UInt: value %v is not an unsigned integer", v)
	}
	if n > u.max() {
		return invalidValue("UInt: value %d exceeds %d-bit range", n, u.BitLength)
	}
	return nil
}

func (u UInt) Pack(v any) ([]byte, error) {
	if err := u.Validate(v); err != nil {
		return nil, err
	}
	n, _ := asUint64(v)
	n_, _ := u.ByteLength()
	b := make([]byte, n_)
	for i := 0; i < n_; i++ {
		b[i] = byte(n >> (8 * uint(i)))
	}
	return b, nil
}

func (u UInt) Unpack(b []byte) (any, error) {
	n_, _ := u.ByteLength()
	if len(b) != n_ {
		return nil, formatErr("UInt: expected %d bytes, got %d", n_, len(b))
	}
	var n uint64
	for i := n_ - 1; i >= 0; i-- {
		n = (n << 8) | uint64(b[i])
	}
	if err := u.Validate(n); err != nil {
		return nil, formatErr("UInt: %v", err)
	}
	return n, nil
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint:
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

// RangedUInt is a UInt whose decoded value must lie in the half-open range
// [Lo, Hi). Its wire width is derived from Hi-1.
type RangedUInt struct {
	Lo, Hi uint64
}

// NewRangedUInt constructs a RangedUInt over [lo, hi).
func NewRangedUInt(lo, hi uint64) RangedUInt {
	if hi <= lo {
		panic("datadef: RangedUInt requires hi > lo")
	}
	return RangedUInt{Lo: lo, Hi: hi}
}

func (r RangedUInt) backing() UInt {
	max := r.Hi - 1
	bits := 1
	for max>>uint(bits) != 0 {
		bits++
	}
	return NewUInt(bits)
}

func (r RangedUInt) ByteLength() (int, DataDef) { return r.backing().ByteLength() }

func (r RangedUInt) Validate(v any) error {
	n, ok := asUint64(v)
	if !ok {
		return invalidValue("RangedUInt: value %v is not an unsigned integer", v)
	}
	if n < r.Lo || n >= r.Hi {
		return invalidValue("RangedUInt: value %d outside range [%d,%d)", n, r.Lo, r.Hi)
	}
	return nil
}

func (r RangedUInt) Pack(v any) ([]byte, error) {
	if err := r.Validate(v); err != nil {
		return nil, err
	}
	return r.backing().Pack(v)
}

func (r RangedUInt) Unpack(b []byte) (any, error) {
	v, err := r.backing().Unpack(b)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(v); err != nil {
		return nil, formatErr("RangedUInt: %v", err)
	}
	return v, nil
}

func (r RangedUInt) String() string {
	return fmt.Sprintf("RangedUInt[%d,%d)", r.Lo, r.Hi)
}
