package datadef

// boolKind codecs a single byte: 0x00 = false, 0x01 = true. Any other byte
// is an unpack-time format error.
type boolKind struct{}

// Bool is the sole instance of the Bool DataDef.
var Bool DataDef = boolKind{}

func (boolKind) ByteLength() (int, DataDef) { return 1, nil }

func (boolKind) Validate(v any) error {
	if _, ok := v.(bool); !ok {
		return invalidValue("Bool: value %v is not a bool", v)
	}
	return nil
}

func (b boolKind) Pack(v any) ([]byte, error) {
	if err := b.Validate(v); err != nil {
		return nil, err
	}
	if v.(bool) {
		return []byte{0x01}, nil
	}
	return []byte{0x00}, nil
}

func (boolKind) Unpack(b []byte) (any, error) {
	if len(b) != 1 {
		return nil, formatErr("Bool: expected 1 byte, got %d", len(b))
	}
	switch b[0] {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return nil, formatErr("Bool: invalid byte 0x%02x", b[0])
	}
}
