package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/config"
	"github.com/nixlim/chat-top/internal/state"
)

// NewStore returns the recent identifier store for cfg and whether it
// persists across runs. An empty db_path selects the in-memory store; a
// database that cannot be opened falls back to memory with a warning.
func NewStore(cfg config.StorageConfig) (state.Store, bool, error) {
	if cfg.DBPath == "" {
		return state.NewMemoryStore(), false, nil
	}

	dbPath := expandTilde(cfg.DBPath)

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("SQLite storage unavailable, falling back to in-memory store")
		return state.NewMemoryStore(), false, nil
	}

	return store, true, nil
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
