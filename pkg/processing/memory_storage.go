package processing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

type memoryRecord struct {
	models.RemoteMatch
	seq int64
}

type memorySubscriber struct {
	ownerID  string
	onUpdate func([]models.RemoteMatch)
}

// MemoryStorage is an in-process remote store used for development
// (REMOTE_STORE=memory) and tests.
type MemoryStorage struct {
	mu          sync.RWMutex
	records     map[string]memoryRecord
	subscribers map[int]memorySubscriber
	nextSub     int
	seq         int64
	logger      common.Logger

	now   func() time.Time
	newID func() string
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage(logger common.Logger) *MemoryStorage {
	return &MemoryStorage{
		records:     make(map[string]memoryRecord),
		subscribers: make(map[int]memorySubscriber),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func (s *MemoryStorage) Create(ctx context.Context, ownerID string, match models.FinishedMatch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if ownerID == "" {
		return "", common.ErrUnauthorized
	}
	match.Events = append([]models.MatchEvent(nil), match.Events...)

	s.mu.Lock()
	s.seq++
	record := memoryRecord{
		RemoteMatch: models.RemoteMatch{
			FinishedMatch: match,
			RecordID:      s.newID(),
			OwnerID:       ownerID,
			CreatedAt:     s.now(),
		},
		seq: s.seq,
	}
	s.records[record.RecordID] = record
	s.mu.Unlock()

	s.logger.Debug("Created record %s for %s", record.RecordID, ownerID)
	s.publish(ownerID)
	return record.RecordID, nil
}

func (s *MemoryStorage) Query(ctx context.Context, ownerID string) ([]models.RemoteMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLocked(ownerID), nil
}

func (s *MemoryStorage) Subscribe(ctx context.Context, ownerID string, onUpdate func([]models.RemoteMatch)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = memorySubscriber{ownerID: ownerID, onUpdate: onUpdate}
	initial := s.queryLocked(ownerID)
	s.mu.Unlock()

	onUpdate(initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *MemoryStorage) Delete(ctx context.Context, recordID, callerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	record, ok := s.records[recordID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("record %s: %w", recordID, common.ErrNotFound)
	}
	if callerID == "" || record.OwnerID != callerID {
		s.mu.Unlock()
		return common.ErrNotOwner
	}
	delete(s.records, recordID)
	s.mu.Unlock()

	s.publish(record.OwnerID)
	return nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// queryLocked must be called with mu held.
func (s *MemoryStorage) queryLocked(ownerID string) []models.RemoteMatch {
	owned := make([]memoryRecord, 0)
	for _, record := range s.records {
		if record.OwnerID == ownerID {
			owned = append(owned, record)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].seq > owned[j].seq
	})

	result := make([]models.RemoteMatch, len(owned))
	for i, record := range owned {
		result[i] = record.RemoteMatch
	}
	return result
}

func (s *MemoryStorage) publish(ownerID string) {
	s.mu.RLock()
	var targets []func([]models.RemoteMatch)
	for _, sub := range s.subscribers {
		if sub.ownerID == ownerID {
			targets = append(targets, sub.onUpdate)
		}
	}
	records := s.queryLocked(ownerID)
	s.mu.RUnlock()

	for _, onUpdate := range targets {
		onUpdate(records)
	}
}
