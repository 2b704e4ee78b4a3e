package business

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// persistTimeout bounds each persistence step once the caller's context has
// been detached.
const persistTimeout = 30 * time.Second

// persistContext keeps ctx's values but not its cancellation. A match that has
// left the session slot must reach the remote store or the queue even when
// the request that finished it is gone.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

// ArchiveOutcome says where a finished match ended up.
type ArchiveOutcome string

const (
	ArchiveUploaded ArchiveOutcome = "uploaded"
	ArchiveQueued   ArchiveOutcome = "queued"
	ArchiveFailed   ArchiveOutcome = "failed"
)

// Uploader creates remote records and fans successful uploads out to listeners.
type Uploader struct {
	remote    RemoteStore
	listeners []UploadListener
	mu        sync.RWMutex
}

// NewUploader creates an uploader over remote.
func NewUploader(remote RemoteStore) *Uploader {
	return &Uploader{remote: remote}
}

// AddListener registers l for successful uploads.
func (u *Uploader) AddListener(l UploadListener) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listeners = append(u.listeners, l)
}

// Upload stores match under ownerID.
func (u *Uploader) Upload(ctx context.Context, ownerID string, match models.FinishedMatch) (string, error) {
	if ownerID == "" {
		return "", common.ErrUnauthorized
	}
	recordID, err := u.remote.Create(ctx, ownerID, match)
	if err != nil {
		return "", err
	}

	u.mu.RLock()
	listeners := append([]UploadListener(nil), u.listeners...)
	u.mu.RUnlock()
	for _, l := range listeners {
		l.MatchUploaded(ctx, recordID, ownerID, match)
	}
	return recordID, nil
}

// MatchArchiver sends finished matches to the remote store when the device
// is online and signed in, and stages them in the offline queue otherwise.
type MatchArchiver struct {
	uploader *Uploader
	queue    PendingQueue
	network  NetworkStatus
	identity IdentitySource
	notifier FailureNotifier
	logger   common.Logger
}

// NewMatchArchiver creates the finish-path persistence service.
func NewMatchArchiver(logger common.Logger, uploader *Uploader, queue PendingQueue, network NetworkStatus, identity IdentitySource) *MatchArchiver {
	return &MatchArchiver{
		uploader: uploader,
		queue:    queue,
		network:  network,
		identity: identity,
		logger:   logger,
	}
}

// SetNotifier sets the operator notifier.
func (a *MatchArchiver) SetNotifier(n FailureNotifier) {
	a.notifier = n
}

// Archive never returns an error: a failed upload degrades to the queue and a
// failed enqueue is reported to operators.
func (a *MatchArchiver) Archive(ctx context.Context, match models.FinishedMatch) ArchiveOutcome {
	if a.network.IsOnline() {
		if ownerID, ok := a.identity.OwnerID(); ok {
			uploadCtx, cancel := persistContext(ctx)
			recordID, err := a.uploader.Upload(uploadCtx, ownerID, match)
			cancel()
			if err == nil {
				a.logger.Info("Match %s uploaded as %s", match.ID, recordID)
				return ArchiveUploaded
			}
			a.logger.Warn("Upload of match %s failed, staging offline: %v", match.ID, err)
			notify(a.notifier, a.logger, "Match Archive", fmt.Sprintf("upload of match %s failed, staged offline: %v", match.ID, err))
		}
	}

	stageCtx, cancel := persistContext(ctx)
	defer cancel()
	tempID, err := a.queue.Enqueue(stageCtx, match)
	if err != nil {
		a.logger.Error("Failed to stage match %s: %v", match.ID, err)
		notify(a.notifier, a.logger, "Match Archive", fmt.Sprintf("match %s could not be uploaded or staged: %v", match.ID, err))
		return ArchiveFailed
	}
	a.logger.Info("Match %s staged offline as %s", match.ID, tempID)
	return ArchiveQueued
}

func notify(n FailureNotifier, logger common.Logger, component, message string) {
	if n == nil {
		return
	}
	if err := n.NotifyError(component, message); err != nil {
		logger.Warn("Failed to notify operators: %v", err)
	}
}
