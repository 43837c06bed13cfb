// Package storage implements ARF's L3 layer: a self-delimited,
// append-only log of opaque unit records with in-place logical deletion.
package storage

import (
	"fmt"
	"io"

	"arf/arferr"
	"arf/datadef"
	"arf/unitspec"
)

// ARFIOWrapper implements the self-delimited record codec of spec.md
// sections 4.3 and 6 against any seekable stream whose cursor sits at the
// start of a record.
type ARFIOWrapper struct {
	Stream io.ReadWriteSeeker
	Spec   *unitspec.ARFSpec
}

// NewARFIOWrapper wraps stream for record-level reads and writes against spec.
func NewARFIOWrapper(stream io.ReadWriteSeeker, spec *unitspec.ARFSpec) *ARFIOWrapper {
	return &ARFIOWrapper{Stream: stream, Spec: spec}
}

func readExact(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", arferr.ErrUnitDataFormat, err)
	}
	return b, nil
}

// readTypeID reads the leading typeid byte of a record. Unlike readExact,
// a clean end-of-stream (no bytes available) is surfaced as io.EOF rather
// than a format error, so callers can distinguish "no more records" from
// a truncated one.
func readTypeID(r io.Reader) (byte, error) {
	b := make([]byte, 1)
	n, err := io.ReadFull(r, b)
	if err != nil {
		if n == 0 && err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("%w: %v", arferr.ErrUnitDataFormat, err)
	}
	return b[0], nil
}

// pieceWireLength reads (and consumes, if variable) enough of the stream to
// determine the on-wire length of the next piece, returning that length.
// For variable-length pieces the length prefix itself has already been
// consumed from the stream when this returns.
func pieceWireLength(stream io.Reader, codec datadef.DataDef) (int, error) {
	fixed, lengthType := codec.ByteLength()
	if fixed >= 0 {
		return fixed, nil
	}
	prefixLen, _ := lengthType.ByteLength()
	raw, err := readExact(stream, prefixLen)
	if err != nil {
		return 0, err
	}
	v, err := lengthType.Unpack(raw)
	if err != nil {
		return 0, err
	}
	n, _ := v.(uint64)
	return int(n), nil
}

// selected reports whether name is in sel, or sel is nil (meaning "all").
func selected(sel map[string]bool, name string) bool {
	return sel == nil || sel[name]
}

// ReadNext decodes the next record. It returns (nil, nil) if the record is
// logically deleted. selectNames, if non-empty, restricts which pieces are
// actually read from the stream; unselected pieces are skipped via their
// declared byte length and left nil in the returned Unit.
func (w *ARFIOWrapper) ReadNext(selectNames ...string) (*unitspec.Unit, error) {
	typeID, err := readTypeID(w.Stream)
	if err != nil {
		return nil, err
	}

	if int(typeID) < datadef.DeletedRangeHi {
		if err := w.skipDeletedBody(typeID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	ut, err := w.Spec.Lookup(typeID)
	if err != nil {
		return nil, err
	}

	var sel map[string]bool
	if len(selectNames) > 0 {
		sel = make(map[string]bool, len(selectNames))
		for _, n := range selectNames {
			sel[n] = true
		}
	}

	pieces := make([]any, len(ut.Pieces))
	pieces[0] = uint64(typeID)

	for i := 1; i < len(ut.Pieces); i++ {
		pd := ut.Pieces[i]
		if !selected(sel, pd.Name) {
			n, err := pieceWireLength(w.Stream, pd.Codec)
			if err != nil {
				return nil, err
			}
			if _, err := w.Stream.Seek(int64(n), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("%w: %v", arferr.ErrUnitDataFormat, err)
			}
			continue
		}
		fixed, lengthType := pd.Codec.ByteLength()
		n := fixed
		if fixed < 0 {
			prefixLen, _ := lengthType.ByteLength()
			raw, err := readExact(w.Stream, prefixLen)
			if err != nil {
				return nil, err
			}
			lv, err := lengthType.Unpack(raw)
			if err != nil {
				return nil, err
			}
			u64, _ := lv.(uint64)
			n = int(u64)
		}
		raw, err := readExact(w.Stream, n)
		if err != nil {
			return nil, err
		}
		v, err := pd.Codec.Unpack(raw)
		if err != nil {
			return nil, err
		}
		pieces[i] = v
	}

	return &unitspec.Unit{Type: ut, Pieces: pieces}, nil
}

// SkipNext is ReadNext with an empty selection, discarding the decoded
// result. It still distinguishes a deleted record (returns false) from a
// live one (returns true).
func (w *ARFIOWrapper) SkipNext() (bool, error) {
	typeID, err := readTypeID(w.Stream)
	if err != nil {
		return false, err
	}
	if int(typeID) < datadef.DeletedRangeHi {
		if err := w.skipDeletedBody(typeID); err != nil {
			return false, err
		}
		return false, nil
	}
	ut, err := w.Spec.Lookup(typeID)
	if err != nil {
		return false, err
	}
	for i := 1; i < len(ut.Pieces); i++ {
		n, err := pieceWireLength(w.Stream, ut.Pieces[i].Codec)
		if err != nil {
			return false, err
		}
		if _, err := w.Stream.Seek(int64(n), io.SeekCurrent); err != nil {
			return false, fmt.Errorf("%w: %v", arferr.ErrUnitDataFormat, err)
		}
	}
	return true, nil
}

// skipDeletedBody consumes the remainder of a deleted record, whose layout
// is: single byte 0x00 for a one-byte record, or 0x01 followed by a run of
// Bool bytes terminated by a false Bool.
func (w *ARFIOWrapper) skipDeletedBody(typeID byte) error {
	if typeID == 0 {
		return nil
	}
	for {
		raw, err := readExact(w.Stream, 1)
		if err != nil {
			return err
		}
		v, err := datadef.Bool.Unpack(raw)
		if err != nil {
			return err
		}
		if v.(bool) == false {
			return nil
		}
	}
}

// WriteUnit encodes unit's pieces in order, emitting a length prefix ahead
// of each variable-length piece.
func (w *ARFIOWrapper) WriteUnit(unit *unitspec.Unit) error {
	for i, pd := range unit.Type.Pieces {
		packed, err := pd.Codec.Pack(unit.Pieces[i])
		if err != nil {
			return err
		}
		fixed, lengthType := pd.Codec.ByteLength()
		if fixed < 0 {
			prefix, err := lengthType.Pack(uint64(len(packed)))
			if err != nil {
				return err
			}
			if _, err := w.Stream.Write(prefix); err != nil {
				return err
			}
		}
		if _, err := w.Stream.Write(packed); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNext measures the next record's on-disk size, then overwrites it in
// place with the deletion pattern of spec.md section 6: a lone 0x00 byte
// for a one-byte record, otherwise 0x01 followed by (size-2) bytes of 0x01
// and a terminating 0x00.
func (w *ARFIOWrapper) DeleteNext() error {
	start, err := w.Stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.SkipNext(); err != nil {
		return err
	}
	end, err := w.Stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	size := end - start
	if _, err := w.Stream.Seek(start, io.SeekStart); err != nil {
		return err
	}

	var pattern []byte
	if size == 1 {
		pattern = []byte{0x00}
	} else {
		pattern = make([]byte, size)
		pattern[0] = 0x01
		for i := int64(1); i < size-1; i++ {
			pattern[i] = 0x01
		}
		pattern[size-1] = 0x00
	}
	if _, err := w.Stream.Write(pattern); err != nil {
		return err
	}
	return nil
}
