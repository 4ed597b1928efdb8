package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/state"
)

// RecentIDsKey is the kv key holding the recent chat identifiers as a JSON
// array of strings.
const RecentIDsKey = "ids"

var ErrClosed = errors.New("store is closed")

// SQLiteStore persists the recent identifier list in a SQLite kv table.
// Reads are served from an in-memory copy loaded at open.
type SQLiteStore struct {
	*state.MemoryStore
	db     *sql.DB
	mu     sync.Mutex
	closed atomic.Bool
}

// NewSQLiteStore opens the database at dbPath and loads the stored list.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{
		MemoryStore: state.NewMemoryStore(),
		db:          db,
	}

	if err := store.recoverIDs(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("recovering recent ids: %w", err)
	}

	return store, nil
}

// Save writes ids to the database and then to memory. The in-memory copy
// is left unchanged when the write fails.
func (s *SQLiteStore) Save(ids []string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.putJSON(RecentIDsKey, ids); err != nil {
		return err
	}
	return s.MemoryStore.Save(ids)
}

// Close closes the database. Further saves return ErrClosed.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Warn().Err(err).Msg("wal checkpoint on close failed")
	}
	return s.db.Close()
}

func (s *SQLiteStore) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) getRaw(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}
