package storage

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"sync"

	"arf/arferr"
	"arf/logger"
	"arf/unitspec"
)

// FileStorage is a file-backed SequentialStorage maintaining a side index
// from store-id to byte offset, per spec.md section 4.4/6.
type FileStorage struct {
	mu     sync.Mutex
	file   *os.File
	spec   *unitspec.ARFSpec
	index  OffsetIndex
	nextID uint64
	size   int64 // current end-of-file offset
}

// FileStorageOptions configures OpenFileStorage.
type FileStorageOptions struct {
	// Index backend; defaults to a fresh MemoryOffsetIndex rebuilt by a
	// full scan.
	Index OffsetIndex
	// Flock requests a best-effort advisory exclusive lock on the file,
	// per spec.md section 5's single-writer policy.
	Flock bool
}

// OpenFileStorage opens (creating if necessary) a log file at path.
func OpenFileStorage(path string, spec *unitspec.ARFSpec, opts FileStorageOptions) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", path, err)
	}
	if opts.Flock {
		tryFlock(int(f.Fd()))
	}
	idx := opts.Index
	if idx == nil {
		idx = NewMemoryOffsetIndex()
	}
	fs := &FileStorage{file: f, spec: spec, index: idx, nextID: 1}
	if idx.Len() == 0 {
		if err := fs.rebuildIndex(); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		stat, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		fs.size = stat.Size()
		// nextID must still be derived; a persisted index does not itself
		// carry the high-water id, so scan once to find it cheaply.
		if err := fs.rebuildNextID(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return fs, nil
}

func (fs *FileStorage) rebuildIndex() error {
	logger.TraceIf("storage", "rebuilding offset index by full scan")
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	w := NewARFIOWrapper(fs.file, fs.spec)
	var offset int64
	var maxID uint64
	for {
		_, err := w.SkipNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// no record starts at offset, so no id is indexed for it
				break
			}
			return err
		}
		maxID++
		if err := fs.index.Set(maxID, offset); err != nil {
			return err
		}
		newOffset, err := fs.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		offset = newOffset
	}
	fs.nextID = maxID + 1
	fs.size = offset
	return nil
}

func (fs *FileStorage) rebuildNextID() error {
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	w := NewARFIOWrapper(fs.file, fs.spec)
	var maxID uint64
	for {
		_, err := w.SkipNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		maxID++
	}
	fs.nextID = maxID + 1
	return nil
}

func (fs *FileStorage) NextID() uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.nextID
}

func (fs *FileStorage) Append(unit *unitspec.Unit) (uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.file.Seek(fs.size, io.SeekStart); err != nil {
		return 0, err
	}
	w := NewARFIOWrapper(fs.file, fs.spec)
	if err := w.WriteUnit(unit); err != nil {
		return 0, err
	}
	newOffset, err := fs.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	id := fs.nextID
	if err := fs.index.Set(id, fs.size); err != nil {
		return 0, err
	}
	fs.nextID++
	fs.size = newOffset
	return id, nil
}

func (fs *FileStorage) Read(id uint64, selectNames ...string) (*unitspec.Unit, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	offset, ok := fs.index.Get(id)
	if !ok {
		return nil, errUnknownID(id)
	}
	if _, err := fs.file.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	w := NewARFIOWrapper(fs.file, fs.spec)
	u, err := w.ReadNext(selectNames...)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errDeleted(id)
	}
	return u, nil
}

func (fs *FileStorage) Discard(id uint64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	offset, ok := fs.index.Get(id)
	if !ok {
		return errUnknownID(id)
	}
	if _, err := fs.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	w := NewARFIOWrapper(fs.file, fs.spec)
	return w.DeleteNext()
}

func (fs *FileStorage) Contains(id uint64) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	offset, ok := fs.index.Get(id)
	if !ok {
		return false
	}
	if _, err := fs.file.Seek(offset, io.SeekStart); err != nil {
		return false
	}
	w := NewARFIOWrapper(fs.file, fs.spec)
	u, err := w.ReadNext()
	return err == nil && u != nil
}

func (fs *FileStorage) MultiReadIter(startID uint64, selectNames ...string) iter.Seq2[uint64, *unitspec.Unit] {
	return func(yield func(uint64, *unitspec.Unit) bool) {
		fs.mu.Lock()
		last := fs.nextID - 1
		fs.mu.Unlock()
		for id := startID; id <= last; id++ {
			u, err := fs.Read(id, selectNames...)
			if err != nil {
				if errors.Is(err, arferr.ErrDeleted) || errors.Is(err, arferr.ErrUnknownID) {
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

// Close releases the underlying file and offset index resources.
func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	idxErr := fs.index.Close()
	fileErr := fs.file.Close()
	if fileErr != nil {
		return fileErr
	}
	return idxErr
}
