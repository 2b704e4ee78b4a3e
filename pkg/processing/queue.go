package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// OfflineQueue stages finished matches that have not been uploaded yet.
// The whole list is rewritten on every change; mu makes each
// read-modify-write a critical section.
type OfflineQueue struct {
	kv     KVStore
	key    string
	logger common.Logger
	mu     sync.Mutex

	now func() time.Time
}

// NewOfflineQueue creates a queue persisted under PendingMatchesKey.
func NewOfflineQueue(kv KVStore, logger common.Logger) *OfflineQueue {
	return &OfflineQueue{
		kv:     kv,
		key:    PendingMatchesKey,
		logger: logger,
		now:    time.Now,
	}
}

// Enqueue stores match and returns its temp id.
func (q *OfflineQueue) Enqueue(ctx context.Context, match models.FinishedMatch) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.read(ctx)
	tempID := q.newTempID(items)
	items = append(items, models.PendingMatch{FinishedMatch: match, TempID: tempID})

	if err := q.write(ctx, items); err != nil {
		return "", err
	}
	q.logger.Info("Staged match %s as %s (%d pending)", match.ID, tempID, len(items))
	return tempID, nil
}

// Dequeue removes the entry with tempID. Missing entries are not an error.
func (q *OfflineQueue) Dequeue(ctx context.Context, tempID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.read(ctx)
	kept := make([]models.PendingMatch, 0, len(items))
	for _, item := range items {
		if item.TempID != tempID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return nil
	}

	if err := q.write(ctx, kept); err != nil {
		return err
	}
	q.logger.Debug("Removed %s (%d pending)", tempID, len(kept))
	return nil
}

// List returns the queued matches in insertion order. Unreadable data yields
// an empty list.
func (q *OfflineQueue) List(ctx context.Context) []models.PendingMatch {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.read(ctx)
}

// Len returns the number of queued matches.
func (q *OfflineQueue) Len(ctx context.Context) int {
	return len(q.List(ctx))
}

func (q *OfflineQueue) read(ctx context.Context) []models.PendingMatch {
	raw, err := q.kv.Get(ctx, q.key)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			q.logger.Warn("Failed to read pending matches: %v", err)
		}
		return []models.PendingMatch{}
	}

	var items []models.PendingMatch
	if err := json.Unmarshal(raw, &items); err != nil {
		q.logger.Warn("Pending matches are corrupt, treating as empty: %v", err)
		return []models.PendingMatch{}
	}
	if items == nil {
		items = []models.PendingMatch{}
	}
	return items
}

func (q *OfflineQueue) write(ctx context.Context, items []models.PendingMatch) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal pending matches: %w", err)
	}
	if err := q.kv.Put(ctx, q.key, payload); err != nil {
		return common.NewStorageError("Failed to write pending matches", err)
	}
	return nil
}

// newTempID builds "<unix millis>-<random suffix>", retrying on collision.
func (q *OfflineQueue) newTempID(items []models.PendingMatch) string {
	taken := make(map[string]bool, len(items))
	for _, item := range items {
		taken[item.TempID] = true
	}
	for {
		id := fmt.Sprintf("%d-%s", q.now().UnixMilli(), uuid.NewString()[:8])
		if !taken[id] {
			return id
		}
	}
}
