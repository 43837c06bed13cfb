package datadef

// ByteData codecs raw bytes. With FixedLen >= 0 it is a fixed-width piece;
// with FixedLen < 0 its wire length is determined by LengthType (a UInt
// kind) at runtime, and Pack/Unpack operate on the raw value only — the
// length prefix itself is emitted/consumed by the unit encoder, not here.
type ByteData struct {
	FixedLen   int
	LengthType DataDef
}

// NewFixedByteData constructs a fixed-width ByteData of n bytes.
func NewFixedByteData(n int) ByteData {
	if n < 0 {
		panic("datadef: fixed ByteData length must be non-negative")
	}
	return ByteData{FixedLen: n}
}

// NewVariableByteData constructs a ByteData whose wire length is prefixed
// by lengthType, a UInt kind.
func NewVariableByteData(lengthType DataDef) ByteData {
	if lengthType == nil {
		panic("datadef: variable ByteData requires a length type")
	}
	return ByteData{FixedLen: -1, LengthType: lengthType}
}

func (b ByteData) ByteLength() (int, DataDef) {
	if b.FixedLen >= 0 {
		return b.FixedLen, nil
	}
	return -1, b.LengthType
}

func (b ByteData) Validate(v any) error {
	raw, ok := v.([]byte)
	if !ok {
		return invalidValue("ByteData: value %v is not []byte", v)
	}
	if b.FixedLen >= 0 && len(raw) != b.FixedLen {
		return invalidValue("ByteData: expected %d bytes, got %d", b.FixedLen, len(raw))
	}
	if b.FixedLen < 0 {
		if err := b.LengthType.Validate(uint64(len(raw))); err != nil {
			return invalidValue("ByteData: length %d invalid for length type: %v", len(raw), err)
		}
	}
	return nil
}

func (b ByteData) Pack(v any) ([]byte, error) {
	if err := b.Validate(v); err != nil {
		return nil, err
	}
	raw := v.([]byte)
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (b ByteData) Unpack(raw []byte) (any, error) {
	if b.FixedLen >= 0 && len(raw) != b.FixedLen {
		return nil, formatErr("ByteData: expected %d bytes, got %d", b.FixedLen, len(raw))
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	if err := b.Validate(out); err != nil {
		return nil, formatErr("ByteData: %v", err)
	}
	return out, nil
}
