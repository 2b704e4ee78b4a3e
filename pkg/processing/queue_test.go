package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

func testMatch(id string) models.FinishedMatch {
	return models.FinishedMatch{
		Match: models.Match{
			ID:       id,
			HomeTeam: "Home",
			AwayTeam: "Away",
			Events: []models.MatchEvent{
				{Type: models.EventTypeScrum, Action: models.ActionWon, Time: 30},
			},
			Stats: models.MatchStats{Scrums: models.SetPieceStats{Won: 1}},
		},
		FinalTime:  4800,
		FinishedAt: time.Date(2025, 5, 3, 17, 0, 0, 0, time.UTC),
	}
}

type failingKV struct {
	KVStore
	failPut bool
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.KVStore.Put(ctx, key, value)
}

func TestOfflineQueue(t *testing.T) {
	for driver, kv := range openTestKVs(t) {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			queue := NewOfflineQueue(kv, common.NopLogger{})

			if pending := queue.List(ctx); pending == nil || len(pending) != 0 {
				t.Fatalf("Expected empty non-nil list, got %v", pending)
			}

			first, err := queue.Enqueue(ctx, testMatch("m1"))
			if err != nil {
				t.Fatalf("Enqueue failed: %v", err)
			}
			second, _ := queue.Enqueue(ctx, testMatch("m2"))
			if first == second {
				t.Errorf("Expected distinct temp ids, got %s twice", first)
			}

			pending := queue.List(ctx)
			if len(pending) != 2 || pending[0].ID != "m1" || pending[1].ID != "m2" {
				t.Fatalf("Expected [m1 m2] in order, got %+v", pending)
			}
			if pending[0].TempID != first || pending[0].Stats.Scrums.Won != 1 || len(pending[0].Events) != 1 {
				t.Errorf("Expected full record to round-trip, got %+v", pending[0])
			}

			if err := queue.Dequeue(ctx, first); err != nil {
				t.Fatalf("Dequeue failed: %v", err)
			}
			if err := queue.Dequeue(ctx, "absent"); err != nil {
				t.Errorf("Expected dequeue of absent id to be a no-op, got %v", err)
			}
			if pending := queue.List(ctx); len(pending) != 1 || pending[0].TempID != second {
				t.Errorf("Expected only %s left, got %+v", second, pending)
			}
			if queue.Len(ctx) != 1 {
				t.Errorf("Expected Len 1, got %d", queue.Len(ctx))
			}
		})
	}
}

func TestOfflineQueueTempIDFormat(t *testing.T) {
	kv := openTestKVs(t)["bolt"]
	queue := NewOfflineQueue(kv, common.NopLogger{})
	queue.now = func() time.Time { return time.UnixMilli(1700000000000) }

	ids := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := queue.Enqueue(context.Background(), testMatch(fmt.Sprintf("m%d", i)))
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if !strings.HasPrefix(id, "1700000000000-") {
			t.Errorf("Expected millisecond prefix, got %s", id)
		}
		if ids[id] {
			t.Errorf("Duplicate temp id %s", id)
		}
		ids[id] = true
	}
}

func TestOfflineQueueCorruptDataIsEmpty(t *testing.T) {
	kv := openTestKVs(t)["sqlite"]
	ctx := context.Background()
	kv.Put(ctx, PendingMatchesKey, []byte("{not json"))

	queue := NewOfflineQueue(kv, common.NopLogger{})
	if pending := queue.List(ctx); len(pending) != 0 {
		t.Errorf("Expected corrupt data to read as empty, got %+v", pending)
	}
	if _, err := queue.Enqueue(ctx, testMatch("m1")); err != nil {
		t.Fatalf("Expected enqueue to recover, got %v", err)
	}
	if queue.Len(ctx) != 1 {
		t.Errorf("Expected 1 pending after recovery, got %d", queue.Len(ctx))
	}
}

func TestOfflineQueueWriteFailure(t *testing.T) {
	kv := &failingKV{KVStore: openTestKVs(t)["bolt"], failPut: true}
	queue := NewOfflineQueue(kv, common.NopLogger{})

	_, err := queue.Enqueue(context.Background(), testMatch("m1"))
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "STORAGE_FAILED" {
		t.Errorf("Expected STORAGE_FAILED, got %v", err)
	}
	if !errors.Is(err, common.ErrStorageFailed) {
		t.Errorf("Expected error to match ErrStorageFailed, got %v", err)
	}
}

func TestOfflineQueueConcurrentEnqueue(t *testing.T) {
	kv := openTestKVs(t)["bolt"]
	queue := NewOfflineQueue(kv, common.NopLogger{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			queue.Enqueue(context.Background(), testMatch(fmt.Sprintf("m%d", i)))
		}(i)
	}
	wg.Wait()

	if n := queue.Len(context.Background()); n != 20 {
		t.Errorf("Expected 20 pending, got %d", n)
	}
}
