package business

import (
	"context"
	"fmt"
	"sync"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// SyncResult summarizes one reconciliation run.
type SyncResult struct {
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	Attempted int    `json:"attempted"`
	Uploaded  int    `json:"uploaded"`
	Failed    int    `json:"failed"`
}

// MigrationOutcome says where a migrated legacy record went.
type MigrationOutcome string

const (
	MigrationUploaded MigrationOutcome = "uploaded"
	MigrationQueued   MigrationOutcome = "queued"
)

// SyncService drains the offline queue into the remote store and migrates
// legacy local records.
type SyncService struct {
	uploader *Uploader
	queue    PendingQueue
	legacy   LegacySource
	network  NetworkStatus
	identity IdentitySource
	notifier FailureNotifier
	logger   common.Logger

	// runMu serializes runs so racing triggers never upload the same item twice at once.
	runMu sync.Mutex
}

// NewSyncService creates the reconciler.
func NewSyncService(logger common.Logger, uploader *Uploader, queue PendingQueue, legacy LegacySource, network NetworkStatus, identity IdentitySource) *SyncService {
	return &SyncService{
		uploader: uploader,
		queue:    queue,
		legacy:   legacy,
		network:  network,
		identity: identity,
		logger:   logger,
	}
}

// SetNotifier sets the operator notifier.
func (s *SyncService) SetNotifier(n FailureNotifier) {
	s.notifier = n
}

// SyncPending uploads every queued match independently. A failed item stays
// queued and does not stop the run.
func (s *SyncService) SyncPending(ctx context.Context) SyncResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.network.IsOnline() {
		s.logger.Debug("Sync skipped: offline")
		return SyncResult{Skipped: true, Reason: "offline"}
	}
	ownerID, ok := s.identity.OwnerID()
	if !ok {
		s.logger.Debug("Sync skipped: no identity")
		return SyncResult{Skipped: true, Reason: "unauthenticated"}
	}

	pending := s.queue.List(ctx)
	if len(pending) == 0 {
		return SyncResult{}
	}

	s.logger.Info("Syncing %d pending matches for %s", len(pending), ownerID)
	var result SyncResult
	for _, item := range pending {
		if ctx.Err() != nil {
			s.logger.Warn("Sync interrupted: %v", ctx.Err())
			break
		}
		result.Attempted++

		recordID, err := s.uploader.Upload(ctx, ownerID, item.FinishedMatch)
		if err != nil {
			result.Failed++
			s.logger.Warn("Pending match %s (%s) failed to upload: %v", item.ID, item.TempID, err)
			notify(s.notifier, s.logger, "Sync", fmt.Sprintf("pending match %s failed to upload: %v", item.TempID, err))
			continue
		}
		result.Uploaded++

		dequeueCtx, cancel := persistContext(ctx)
		err = s.queue.Dequeue(dequeueCtx, item.TempID)
		cancel()
		if err != nil {
			// The record is uploaded; leaving it queued means a duplicate upload later.
			s.logger.Error("Uploaded match %s but failed to dequeue %s: %v", recordID, item.TempID, err)
		}
	}

	s.logger.Info("Sync finished: %d uploaded, %d failed", result.Uploaded, result.Failed)
	return result
}

// MigrateLegacyItem moves one legacy record, found by temp id or id, into the
// remote store or the offline queue. The record leaves the legacy list before
// anything else happens so it is never processed twice.
func (s *SyncService) MigrateLegacyItem(ctx context.Context, identifier string) (MigrationOutcome, error) {
	legacy, err := s.legacy.Take(ctx, identifier)
	if err != nil {
		return "", err
	}
	match := legacy.ToFinished()

	if s.network.IsOnline() {
		if ownerID, ok := s.identity.OwnerID(); ok {
			uploadCtx, cancel := persistContext(ctx)
			_, err := s.uploader.Upload(uploadCtx, ownerID, match)
			cancel()
			if err == nil {
				s.logger.Info("Legacy match %s uploaded", identifier)
				return MigrationUploaded, nil
			}
			s.logger.Warn("Legacy match %s failed to upload, staging offline: %v", identifier, err)
		}
	}

	stageCtx, cancel := persistContext(ctx)
	defer cancel()
	tempID, err := s.queue.Enqueue(stageCtx, match)
	if err != nil {
		s.logger.Error("Failed to stage legacy match %s: %v", identifier, err)
		notify(s.notifier, s.logger, "Legacy Migration", fmt.Sprintf("legacy match %s could not be uploaded or staged: %v", identifier, err))
		return "", fmt.Errorf("stage legacy match %s: %w", identifier, err)
	}
	s.logger.Info("Legacy match %s staged offline as %s", identifier, tempID)
	return MigrationQueued, nil
}

// ListLegacy returns the remaining legacy records.
func (s *SyncService) ListLegacy(ctx context.Context) []models.LegacyMatch {
	return s.legacy.List(ctx)
}

// HandleIdentityAvailable runs a sync for a freshly signed-in owner.
func (s *SyncService) HandleIdentityAvailable(ctx context.Context, ownerID string) SyncResult {
	s.logger.Info("Identity %s available, reconciling", ownerID)
	return s.SyncPending(ctx)
}

// HandleConnectivityRestored runs a sync when a signed-in device comes back online.
func (s *SyncService) HandleConnectivityRestored(ctx context.Context) SyncResult {
	if _, ok := s.identity.OwnerID(); !ok {
		return SyncResult{Skipped: true, Reason: "unauthenticated"}
	}
	s.logger.Info("Connectivity restored, reconciling")
	return s.SyncPending(ctx)
}

// SyncOnSignIn reconciles for ownerID in its own goroutine and hands the result
// to report, when set. It returns immediately.
func (s *SyncService) SyncOnSignIn(ctx context.Context, ownerID string, report func(SyncResult)) {
	go func() {
		result := s.HandleIdentityAvailable(ctx, ownerID)
		if report != nil {
			report(result)
		}
	}()
}

// SyncOnRestore is the reconnect counterpart of SyncOnSignIn.
func (s *SyncService) SyncOnRestore(ctx context.Context, report func(SyncResult)) {
	go func() {
		result := s.HandleConnectivityRestored(ctx)
		if report != nil {
			report(result)
		}
	}()
}
