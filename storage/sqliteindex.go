package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteOffsetIndex persists the id->offset side index in a SQLite
// database alongside the log file, so very large logs can be reopened
// without a full rescan. This generalizes the teacher's persisted tag
// index (storage/binary/tag_index_persistence.go) from tag->entity-ids to
// store-id->byte-offset.
type SQLiteOffsetIndex struct {
	db    *sql.DB
	count int
}

// OpenSQLiteOffsetIndex opens (creating if needed) a SQLite-backed offset
// index at path.
func OpenSQLiteOffsetIndex(path string) (*SQLiteOffsetIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening sqlite offset index: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS offsets (
		store_id INTEGER PRIMARY KEY,
		byte_offset INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: initializing sqlite offset index: %w", err)
	}
	idx := &SQLiteOffsetIndex{db: db}
	row := db.QueryRow(`SELECT COUNT(*) FROM offsets`)
	_ = row.Scan(&idx.count)
	return idx, nil
}

func (s *SQLiteOffsetIndex) Get(id uint64) (int64, bool) {
	var offset int64
	err := s.db.QueryRow(`SELECT byte_offset FROM offsets WHERE store_id = ?`, id).Scan(&offset)
	if err != nil {
		return 0, false
	}
	return offset, true
}

func (s *SQLiteOffsetIndex) Set(id uint64, offset int64) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO offsets (store_id, byte_offset) VALUES (?, ?)`, id, offset)
	if err == nil {
		s.count++
	}
	return err
}

func (s *SQLiteOffsetIndex) Len() int { return s.count }

func (s *SQLiteOffsetIndex) Close() error { return s.db.Close() }
