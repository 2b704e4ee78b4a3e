package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// LegacyStore reads the history list written by older builds under
// LegacyMatchesKey. Records only ever leave it.
type LegacyStore struct {
	kv     KVStore
	logger common.Logger
	mu     sync.Mutex
}

// NewLegacyStore creates a legacy store over kv.
func NewLegacyStore(kv KVStore, logger common.Logger) *LegacyStore {
	return &LegacyStore{kv: kv, logger: logger}
}

// List returns the remaining legacy records. Unreadable data yields an empty list.
func (s *LegacyStore) List(ctx context.Context) []models.LegacyMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Take removes and returns the record whose temp id or id is identifier.
func (s *LegacyStore) Take(ctx context.Context, identifier string) (models.LegacyMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.read(ctx)
	for i, item := range items {
		if !item.Matches(identifier) {
			continue
		}
		rest := make([]models.LegacyMatch, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)

		payload, err := json.Marshal(rest)
		if err != nil {
			return models.LegacyMatch{}, fmt.Errorf("marshal legacy matches: %w", err)
		}
		if err := s.kv.Put(ctx, LegacyMatchesKey, payload); err != nil {
			return models.LegacyMatch{}, common.NewStorageError("Failed to write legacy matches", err)
		}
		s.logger.Info("Took legacy match %s (%d left)", identifier, len(rest))
		return item, nil
	}
	return models.LegacyMatch{}, fmt.Errorf("legacy match %s: %w", identifier, common.ErrNotFound)
}

func (s *LegacyStore) read(ctx context.Context) []models.LegacyMatch {
	raw, err := s.kv.Get(ctx, LegacyMatchesKey)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("Failed to read legacy matches: %v", err)
		}
		return []models.LegacyMatch{}
	}
	var items []models.LegacyMatch
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("Legacy matches are corrupt, treating as empty: %v", err)
		return []models.LegacyMatch{}
	}
	if items == nil {
		items = []models.LegacyMatch{}
	}
	return items
}
