package processing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

func newTestMemoryStorage() *MemoryStorage {
	s := NewMemoryStorage(common.NopLogger{})
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
	// Two records per instant exercise the tiebreak.
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls/2) * time.Minute)
	}
	return s
}

func TestMemoryStorageCreateAndQuery(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		if _, err := s.Create(ctx, "owner-1", testMatch(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	s.Create(ctx, "owner-2", testMatch("other"))

	records, err := s.Query(ctx, "owner-1")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
		if r.OwnerID != "owner-1" {
			t.Errorf("Expected owner-1 records only, got %s", r.OwnerID)
		}
	}
	expected := "[m4 m3 m2 m1]"
	if fmt.Sprint(ids) != expected {
		t.Errorf("Expected %s, got %v", expected, ids)
	}
	if records[0].RecordID != "rec-4" || records[0].FinalTime != 4800 {
		t.Errorf("Unexpected record %+v", records[0])
	}
}

func TestMemoryStorageRequiresOwner(t *testing.T) {
	s := newTestMemoryStorage()
	if _, err := s.Create(context.Background(), "", testMatch("m1")); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestMemoryStorageDelete(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()
	recordID, _ := s.Create(ctx, "owner-1", testMatch("m1"))

	if err := s.Delete(ctx, recordID, "owner-2"); !errors.Is(err, common.ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}
	if err := s.Delete(ctx, recordID, ""); !errors.Is(err, common.ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner for empty caller, got %v", err)
	}
	if err := s.Delete(ctx, recordID, "owner-1"); err != nil {
		t.Fatalf("Owner delete failed: %v", err)
	}
	if err := s.Delete(ctx, recordID, "owner-1"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStorageSubscribe(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()
	s.Create(ctx, "owner-1", testMatch("m1"))

	var pushes [][]models.RemoteMatch
	unsubscribe := s.Subscribe(ctx, "owner-1", func(records []models.RemoteMatch) {
		pushes = append(pushes, records)
	})

	if len(pushes) != 1 || len(pushes[0]) != 1 {
		t.Fatalf("Expected initial push with 1 record, got %v", pushes)
	}

	recordID, _ := s.Create(ctx, "owner-1", testMatch("m2"))
	s.Create(ctx, "owner-2", testMatch("x"))
	if len(pushes) != 2 || len(pushes[1]) != 2 || pushes[1][0].ID != "m2" {
		t.Fatalf("Expected a push with m2 first, got %d pushes", len(pushes))
	}

	s.Delete(ctx, recordID, "owner-1")
	if len(pushes) != 3 || len(pushes[2]) != 1 {
		t.Fatalf("Expected a push after delete, got %d pushes", len(pushes))
	}

	unsubscribe()
	unsubscribe()
	s.Create(ctx, "owner-1", testMatch("m3"))
	if len(pushes) != 3 {
		t.Errorf("Expected no pushes after unsubscribe, got %d", len(pushes))
	}
}

func TestMemoryStorageRecordsAreCopies(t *testing.T) {
	s := newTestMemoryStorage()
	ctx := context.Background()
	match := testMatch("m1")
	s.Create(ctx, "owner-1", match)

	match.Events[0].Action = models.ActionLost
	records, _ := s.Query(ctx, "owner-1")
	if records[0].Events[0].Action != models.ActionWon {
		t.Error("Expected stored events to be isolated from the caller")
	}
}
