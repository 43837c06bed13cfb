package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"sort"
	"sync"

	"arf/arferr"
	"arf/unitspec"
)

// MemoryStorage is an in-memory SequentialStorage, grounded on
// original_source/selfdelimitedblob.py's MemoryOnlyStorage. It is suitable
// for transient stores such as TransactionComposer's provisional content,
// and for tests.
type MemoryStorage struct {
	mu      sync.Mutex
	spec    *unitspec.ARFSpec
	records map[uint64][]byte // packed bytes, present even when deleted
	deleted map[uint64]bool
	nextID  uint64
}

// NewMemoryStorage creates an empty MemoryStorage for the given spec.
func NewMemoryStorage(spec *unitspec.ARFSpec) *MemoryStorage {
	return &MemoryStorage{
		spec:    spec,
		records: make(map[uint64][]byte),
		deleted: make(map[uint64]bool),
		nextID:  1,
	}
}

func (m *MemoryStorage) packUnit(unit *unitspec.Unit) ([]byte, error) {
	var buf bytes.Buffer
	w := NewARFIOWrapper(&seekBuffer{&buf, 0}, m.spec)
	if err := w.WriteUnit(unit); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *MemoryStorage) Append(unit *unitspec.Unit) (uint64, error) {
	packed, err := m.packUnit(unit)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.records[id] = packed
	return id, nil
}

func (m *MemoryStorage) NextID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID
}

func (m *MemoryStorage) Read(id uint64, selectNames ...string) (*unitspec.Unit, error) {
	m.mu.Lock()
	packed, ok := m.records[id]
	del := m.deleted[id]
	m.mu.Unlock()
	if !ok {
		return nil, errUnknownID(id)
	}
	if del {
		return nil, errDeleted(id)
	}
	r := bytes.NewReader(packed)
	w := NewARFIOWrapper(&readSeeker{r}, m.spec)
	u, err := w.ReadNext(selectNames...)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errDeleted(id)
	}
	return u, nil
}

func (m *MemoryStorage) Discard(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	packed, ok := m.records[id]
	if !ok {
		return errUnknownID(id)
	}
	if m.deleted[id] {
		return nil // idempotent
	}
	var buf bytes.Buffer
	sb := &seekBuffer{&buf, 0}
	if _, err := sb.Write(packed); err != nil {
		return err
	}
	sb.pos = 0
	w := NewARFIOWrapper(sb, m.spec)
	if err := w.DeleteNext(); err != nil {
		return err
	}
	m.records[id] = buf.Bytes()
	m.deleted[id] = true
	return nil
}

func (m *MemoryStorage) Contains(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok && !m.deleted[id]
}

func (m *MemoryStorage) MultiReadIter(startID uint64, selectNames ...string) iter.Seq2[uint64, *unitspec.Unit] {
	return func(yield func(uint64, *unitspec.Unit) bool) {
		m.mu.Lock()
		ids := make([]uint64, 0, len(m.records))
		for id := range m.records {
			if id >= startID {
				ids = append(ids, id)
			}
		}
		m.mu.Unlock()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			u, err := m.Read(id, selectNames...)
			if err != nil {
				if errors.Is(err, arferr.ErrDeleted) {
					continue
				}
				return
			}
			if !yield(id, u) {
				return
			}
		}
	}
}

// seekBuffer adapts a growing bytes.Buffer to io.ReadWriteSeeker for
// write-then-rewind access patterns such as Discard's in-place rewrite.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

// Write overwrites in place where p fits within the current buffer length,
// and appends (zero-filling any gap) otherwise. This supports both pure
// appends (pos at end) and Discard's same-size in-place rewrite (pos reset
// to 0 before re-writing a record of identical length).
func (s *seekBuffer) Write(p []byte) (int, error) {
	b := s.buf.Bytes()
	if s.pos+len(p) <= len(b) {
		copy(b[s.pos:s.pos+len(p)], p)
		s.pos += len(p)
		return len(p), nil
	}
	if s.pos < len(b) {
		overlap := len(b) - s.pos
		copy(b[s.pos:], p[:overlap])
		if _, err := s.buf.Write(p[overlap:]); err != nil {
			return 0, err
		}
		s.pos += len(p)
		return len(p), nil
	}
	if s.pos > len(b) {
		s.buf.Write(make([]byte, s.pos-len(b)))
	}
	n, err := s.buf.Write(p)
	s.pos += len(p)
	return n, err
}

func (s *seekBuffer) Read(p []byte) (int, error) {
	b := s.buf.Bytes()
	if s.pos >= len(b) {
		return 0, io.EOF
	}
	n := copy(p, b[s.pos:])
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int
	switch whence {
	case 0:
		base = 0
	case 1:
		base = s.pos
	case 2:
		base = s.buf.Len()
	}
	s.pos = base + int(offset)
	return int64(s.pos), nil
}

// readSeeker adapts a bytes.Reader (already seekable) to io.ReadWriteSeeker
// for read-only wrapper use; Write is never called on it.
type readSeeker struct {
	*bytes.Reader
}

func (r *readSeeker) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("storage: read-only stream")
}
