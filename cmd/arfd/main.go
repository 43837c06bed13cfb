// Command arfd is a read-only diagnostic daemon for an ARF instance. It
// opens a log at a data path, keeps its mapper/indexer synced, and exposes
// liveness and coarse statistics over HTTP. It has no write path and does
// not serve unit content: it is not the file-serving wire protocol ARF
// itself superseded.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"arf/config"
	"arf/indexer"
	"arf/logger"
	"arf/mapper"
	"arf/storage"
	"arf/unitspec"

	"github.com/gorilla/mux"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	syncInterval := flag.Duration("sync-interval", 2*time.Second, "how often to poll storage for new units")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "arfd:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "arfd:", err)
		os.Exit(1)
	}
	for _, s := range cfg.TraceSubsystems {
		logger.EnableSubsystem(s)
	}

	inst, err := openInstance(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "arfd:", err)
		os.Exit(1)
	}
	defer inst.storage.Close()

	if err := inst.syncOnce(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "arfd: initial sync:", err)
		os.Exit(1)
	}

	go inst.syncLoop(*syncInterval)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", inst.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/stats", inst.handleStats).Methods(http.MethodGet)

	logger.Info("arfd listening on %s (data path %s)", *addr, cfg.DataPath)
	if err := http.ListenAndServe(*addr, r); err != nil {
		fmt.Fprintln(os.Stderr, "arfd:", err)
		os.Exit(1)
	}
}

// instance bundles one ARF store's storage, mapper, and indexer, plus the
// last-sync outcome arfd's endpoints report.
type instance struct {
	storage *storage.FileStorage
	mapper  *mapper.Mapper
	indexer *indexer.Indexer

	mu          sync.Mutex
	lastSyncErr error
	lastSyncAt  time.Time

	syncing atomic.Bool
}

func openInstance(cfg *config.Config) (*instance, error) {
	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data path: %w", err)
	}
	logPath := filepath.Join(cfg.DataPath, "arf.log")

	var opts storage.FileStorageOptions
	opts.Flock = cfg.FlockEnabled
	if cfg.OffsetIndexDriver == config.OffsetIndexSQLite {
		idxPath := filepath.Join(cfg.DataPath, "offsets.sqlite3")
		sqliteIdx, err := storage.OpenSQLiteOffsetIndex(idxPath)
		if err != nil {
			return nil, err
		}
		opts.Index = sqliteIdx
	}

	st, err := storage.OpenFileStorage(logPath, unitspec.Base, opts)
	if err != nil {
		return nil, err
	}

	m := mapper.New(st, unitspec.Base)
	ix := indexer.New(m, unitspec.Base)

	return &instance{storage: st, mapper: m, indexer: ix}, nil
}

func (in *instance) syncOnce(ctx context.Context) error {
	if !in.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer in.syncing.Store(false)

	err := in.mapper.Sync(ctx)
	in.mu.Lock()
	in.lastSyncErr = err
	in.lastSyncAt = time.Now()
	in.mu.Unlock()
	return err
}

func (in *instance) syncLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := in.syncOnce(context.Background()); err != nil {
			logger.Error("periodic sync: %v", err)
		}
	}
}

func (in *instance) handleHealthz(w http.ResponseWriter, r *http.Request) {
	in.mu.Lock()
	lastErr := in.lastSyncErr
	lastAt := in.lastSyncAt
	in.mu.Unlock()

	status := http.StatusOK
	body := map[string]any{
		"status":       "ok",
		"last_sync_at": lastAt.Format(time.RFC3339),
		"last_sync_ok": lastErr == nil,
	}
	if lastErr != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["last_sync_error"] = lastErr.Error()
	}
	writeJSON(w, status, body)
}

func (in *instance) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mapped_units":       len(collectIDs(in.mapper)),
		"open_transactions":  in.indexer.OpenTransactionCount(),
		"committed_subjects": in.indexer.Committed().SubjectCount(),
		"discarded_units":    in.indexer.DiscardCount(),
	})
}

func collectIDs(m *mapper.Mapper) []uint64 {
	var ids []uint64
	for id, _ := range m.IterUnits(0) {
		ids = append(ids, id)
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
