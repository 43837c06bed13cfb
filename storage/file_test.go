package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"arf/arferr"
	"arf/unitspec"
)

func mustUnit(t *testing.T, offset uint64, data []byte) *unitspec.Unit {
	t.Helper()
	u, err := unitspec.Base.New(unitspec.StrandWriteDataBlock, offset, data)
	if err != nil {
		t.Fatalf("building unit: %v", err)
	}
	return u
}

func TestFileStorageAppendReadDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arf.log")
	fs, err := OpenFileStorage(path, unitspec.Base, FileStorageOptions{})
	if err != nil {
		t.Fatalf("OpenFileStorage: %v", err)
	}
	defer fs.Close()

	id, err := fs.Append(mustUnit(t, 0, []byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != 1 {
		t.Fatalf("first id = %d, want 1", id)
	}

	u, err := fs.Read(id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data, _ := u.Get("data")
	if !bytes.Equal(data.([]byte), []byte{1, 2, 3}) {
		t.Fatalf("data = % x, want 01 02 03", data)
	}

	if err := fs.Discard(id); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := fs.Read(id); !errors.Is(err, arferr.ErrDeleted) {
		t.Fatalf("expected ErrDeleted reading a discarded record, got %v", err)
	}
	if fs.Contains(id) {
		t.Fatalf("expected Contains to be false for a discarded id")
	}
}

func TestFileStorageReopenRebuildsIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arf.log")
	fs, err := OpenFileStorage(path, unitspec.Base, FileStorageOptions{})
	if err != nil {
		t.Fatalf("OpenFileStorage: %v", err)
	}
	id1, _ := fs.Append(mustUnit(t, 0, []byte{1}))
	id2, _ := fs.Append(mustUnit(t, 8, []byte{2, 3}))
	if err := fs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenFileStorage(path, unitspec.Base, FileStorageOptions{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if reopened.NextID() != id2+1 {
		t.Fatalf("NextID() = %d, want %d", reopened.NextID(), id2+1)
	}
	u, err := reopened.Read(id1)
	if err != nil {
		t.Fatalf("Read(id1) after reopen: %v", err)
	}
	data, _ := u.Get("data")
	if !bytes.Equal(data.([]byte), []byte{1}) {
		t.Fatalf("data = % x, want 01", data)
	}
}

func TestFileStorageMultiReadIterSkipsDeleted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arf.log")
	fs, err := OpenFileStorage(path, unitspec.Base, FileStorageOptions{})
	if err != nil {
		t.Fatalf("OpenFileStorage: %v", err)
	}
	defer fs.Close()

	id1, _ := fs.Append(mustUnit(t, 0, []byte{1}))
	id2, _ := fs.Append(mustUnit(t, 8, []byte{2}))
	if err := fs.Discard(id1); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	var got []uint64
	for id, u := range fs.MultiReadIter(1) {
		_ = u
		got = append(got, id)
	}
	if len(got) != 1 || got[0] != id2 {
		t.Fatalf("MultiReadIter = %v, want [%d]", got, id2)
	}
}
