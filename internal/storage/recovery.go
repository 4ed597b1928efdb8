package storage

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/state"
)

// recoverIDs loads the persisted list into memory. A corrupt value is
// logged and treated as an empty list so the dashboard still starts.
func (s *SQLiteStore) recoverIDs() error {
	raw, ok, err := s.getRaw(RecentIDsKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Error().Err(err).Str("key", RecentIDsKey).Msg("discarding unreadable recent ids")
		return nil
	}

	ids = state.Dedupe(ids)
	log.Debug().Int("count", len(ids)).Msg("recovered recent ids")
	return s.MemoryStore.Save(ids)
}
