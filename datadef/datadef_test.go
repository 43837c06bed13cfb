package datadef

import (
	"bytes"
	"errors"
	"testing"

	"arf/arferr"
)

func TestUIntRoundTrip(t *testing.T) {
	cases := []struct {
		dd  DataDef
		in  uint64
		out []byte
	}{
		{UInt8Kind, 200, []byte{200}},
		{UInt16Kind, 0x1234, []byte{0x34, 0x12}},
		{UInt64Kind, 0x0102030405060708, []byte{8, 7, 6, 5, 4, 3, 2, 1}},
	}
	for _, c := range cases {
		packed, err := c.dd.Pack(c.in)
		if err != nil {
			t.Fatalf("Pack(%d): %v", c.in, err)
		}
		if !bytes.Equal(packed, c.out) {
			t.Fatalf("Pack(%d) = % x, want % x", c.in, packed, c.out)
		}
		got, err := c.dd.Unpack(packed)
		if err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		if got.(uint64) != c.in {
			t.Fatalf("round trip: got %d, want %d", got, c.in)
		}
	}
}

func TestUIntRejectsOutOfRange(t *testing.T) {
	_, err := UInt8Kind.Pack(uint64(256))
	if !errors.Is(err, arferr.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestRangedUInt(t *testing.T) {
	r := NewRangedUInt(1, 65)
	if err := r.Validate(uint64(1)); err != nil {
		t.Fatalf("1 should validate: %v", err)
	}
	if err := r.Validate(uint64(64)); err != nil {
		t.Fatalf("64 should validate: %v", err)
	}
	if err := r.Validate(uint64(0)); !errors.Is(err, arferr.ErrInvalidValue) {
		t.Fatalf("0 should be rejected, got %v", err)
	}
	if err := r.Validate(uint64(65)); !errors.Is(err, arferr.ErrInvalidValue) {
		t.Fatalf("65 should be rejected, got %v", err)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		packed, err := Bool.Pack(v)
		if err != nil {
			t.Fatalf("Pack(%v): %v", v, err)
		}
		got, err := Bool.Unpack(packed)
		if err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		if got.(bool) != v {
			t.Fatalf("round trip: got %v, want %v", got, v)
		}
	}
}

func TestBoolRejectsInvalidByte(t *testing.T) {
	if _, err := Bool.Unpack([]byte{0x02}); !errors.Is(err, arferr.ErrUnitDataFormat) {
		t.Fatalf("expected ErrUnitDataFormat, got %v", err)
	}
}

func TestVariableByteDataPackAndLengthPrefix(t *testing.T) {
	dd := StrandData
	in := []byte{1, 2, 3}
	packed, err := dd.Pack(in)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !bytes.Equal(packed, in) {
		t.Fatalf("Pack should return the raw bytes unchanged, got % x", packed)
	}
	fixed, lengthType := dd.ByteLength()
	if fixed >= 0 {
		t.Fatalf("StrandData should report a variable width")
	}
	prefix, err := lengthType.Pack(uint64(len(in)))
	if err != nil {
		t.Fatalf("packing length prefix: %v", err)
	}
	if !bytes.Equal(prefix, []byte{3, 0}) {
		t.Fatalf("length prefix = % x, want 03 00", prefix)
	}
}

func TestFixedByteDataRejectsWrongLength(t *testing.T) {
	dd := NewFixedByteData(4)
	if _, err := dd.Pack([]byte{1, 2, 3}); !errors.Is(err, arferr.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestWireLength(t *testing.T) {
	n, err := WireLength(UInt32Kind, uint64(5))
	if err != nil {
		t.Fatalf("WireLength: %v", err)
	}
	if n != 4 {
		t.Fatalf("WireLength(UInt32) = %d, want 4", n)
	}

	n, err = WireLength(StrandData, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("WireLength: %v", err)
	}
	if n != 2+3 { // 2-byte length prefix + 3 payload bytes
		t.Fatalf("WireLength(StrandData) = %d, want 5", n)
	}
}
