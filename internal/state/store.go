package state

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store persists the list of recently searched chat identifiers.
// All methods must be thread-safe.
type Store interface {
	// Load returns the identifiers in insertion order. A store that has
	// never been written returns an empty list.
	Load() ([]string, error)

	// Save replaces the persisted list.
	Save(ids []string) error

	// Close releases resources held by the store.
	Close() error
}

// MemoryStore is a thread-safe in-memory implementation of Store.
// Its contents are lost when the process exits.
type MemoryStore struct {
	mu  sync.RWMutex
	ids []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored list.
func (ms *MemoryStore) Load() ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return slices.Clone(ms.ids), nil
}

// Save replaces the stored list with a copy of ids.
func (ms *MemoryStore) Save(ids []string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.ids = slices.Clone(ids)
	return nil
}

// Close is a no-op for MemoryStore.
func (ms *MemoryStore) Close() error {
	return nil
}

// rememberMu serializes the load-modify-save cycle of Remember.
var rememberMu sync.Mutex

// Remember adds id to the store's list unless it is already present and
// returns the resulting list. Blank identifiers are ignored. The list keeps
// insertion order and never holds duplicates.
func Remember(s Store, id string) ([]string, error) {
	id = strings.TrimSpace(id)

	rememberMu.Lock()
	defer rememberMu.Unlock()

	ids, err := s.Load()
	if err != nil {
		return nil, err
	}
	ids = Dedupe(ids)
	if id == "" || slices.Contains(ids, id) {
		return ids, nil
	}
	ids = append(ids, id)
	if err := s.Save(ids); err != nil {
		return nil, err
	}
	log.Debug().Str("chat_id", id).Int("count", len(ids)).Msg("remembered chat id")
	return ids, nil
}

// Dedupe drops repeated and blank identifiers, keeping first occurrences.
func Dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Suggest returns the identifiers that start with prefix, most recent first.
// An empty prefix matches everything.
func Suggest(ids []string, prefix string) []string {
	prefix = strings.TrimSpace(prefix)
	var out []string
	for i := len(ids) - 1; i >= 0; i-- {
		if strings.HasPrefix(ids[i], prefix) {
			out = append(out, ids[i])
		}
	}
	return out
}
