package business

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
	"wtr-service/pkg/processing"
)

var errRemoteDown = errors.New("remote unavailable")

type fakeNetwork struct{ online bool }

func (n *fakeNetwork) IsOnline() bool { return n.online }

type fakeIdentity struct{ owner string }

func (i *fakeIdentity) OwnerID() (string, bool) { return i.owner, i.owner != "" }

// flakyRemote is an in-memory store whose Create fails for selected match ids.
// When set, release gates every Create and afterCreate runs after a success.
type flakyRemote struct {
	*processing.MemoryStorage
	mu          sync.Mutex
	failFor     map[string]bool
	failAll     bool
	creates     int
	release     chan struct{}
	afterCreate func()
}

func newFlakyRemote() *flakyRemote {
	return &flakyRemote{
		MemoryStorage: processing.NewMemoryStorage(common.NopLogger{}),
		failFor:       make(map[string]bool),
	}
}

func (r *flakyRemote) Create(ctx context.Context, ownerID string, match models.FinishedMatch) (string, error) {
	r.mu.Lock()
	r.creates++
	fail := r.failAll || r.failFor[match.ID]
	r.mu.Unlock()
	if fail {
		return "", errRemoteDown
	}
	if r.release != nil {
		<-r.release
	}
	recordID, err := r.MemoryStorage.Create(ctx, ownerID, match)
	if err == nil && r.afterCreate != nil {
		r.afterCreate()
	}
	return recordID, err
}

// memQueue is an in-memory PendingQueue.
type memQueue struct {
	mu          sync.Mutex
	items       []models.PendingMatch
	next        int
	failEnqueue bool
}

func (q *memQueue) Enqueue(ctx context.Context, match models.FinishedMatch) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failEnqueue {
		return "", common.NewStorageError("Failed to write pending matches", errors.New("disk full"))
	}
	q.next++
	tempID := fmt.Sprintf("temp-%d", q.next)
	q.items = append(q.items, models.PendingMatch{FinishedMatch: match, TempID: tempID})
	return tempID, nil
}

func (q *memQueue) Dequeue(ctx context.Context, tempID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0:0]
	for _, item := range q.items {
		if item.TempID != tempID {
			kept = append(kept, item)
		}
	}
	q.items = kept
	return nil
}

func (q *memQueue) List(ctx context.Context) []models.PendingMatch {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.PendingMatch{}, q.items...)
}

type memLegacy struct {
	mu    sync.Mutex
	items []models.LegacyMatch
}

func (l *memLegacy) List(ctx context.Context) []models.LegacyMatch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.LegacyMatch{}, l.items...)
}

func (l *memLegacy) Take(ctx context.Context, identifier string) (models.LegacyMatch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, item := range l.items {
		if item.Matches(identifier) {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return item, nil
		}
	}
	return models.LegacyMatch{}, fmt.Errorf("legacy match %s: %w", identifier, common.ErrNotFound)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) NotifyError(component, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, component+": "+message)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type recordingListener struct {
	mu       sync.Mutex
	updates  []models.Match
	finished []models.FinishedMatch
}

func (l *recordingListener) MatchUpdated(match models.Match) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, match)
}

func (l *recordingListener) MatchFinished(match models.FinishedMatch) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finished = append(l.finished, match)
}

type recordingUploads struct {
	mu        sync.Mutex
	recordIDs []string
}

func (u *recordingUploads) MatchUploaded(ctx context.Context, recordID, ownerID string, match models.FinishedMatch) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.recordIDs = append(u.recordIDs, recordID)
}

func finishedMatch(id string) models.FinishedMatch {
	return models.FinishedMatch{
		Match: models.Match{
			ID:       id,
			HomeTeam: "Home " + id,
			AwayTeam: "Away " + id,
			Events:   []models.MatchEvent{},
		},
		FinalTime: 4800,
	}
}

// newBoltQueue returns an OfflineQueue persisted in a bolt file under t.TempDir.
func newBoltQueue(t *testing.T) *processing.OfflineQueue {
	t.Helper()
	kv, err := processing.OpenKV("bolt", filepath.Join(t.TempDir(), "local.db"))
	if err != nil {
		t.Fatalf("OpenKV failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return processing.NewOfflineQueue(kv, common.NopLogger{})
}

// cancelledContext returns a context that is already done.
func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
