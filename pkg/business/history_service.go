package business

import (
	"context"
	"errors"
	"sync"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// HistoryService reads and deletes the signed-in owner's remote history and
// keeps one live subscription for that owner.
type HistoryService struct {
	remote   RemoteStore
	identity IdentitySource
	logger   common.Logger

	mu          sync.Mutex
	watchOwner  string
	unsubscribe func()
}

// NewHistoryService creates a history service.
func NewHistoryService(logger common.Logger, remote RemoteStore, identity IdentitySource) *HistoryService {
	return &HistoryService{
		remote:   remote,
		identity: identity,
		logger:   logger,
	}
}

// List returns the owner's records, newest first.
func (h *HistoryService) List(ctx context.Context) ([]models.RemoteMatch, error) {
	ownerID, ok := h.identity.OwnerID()
	if !ok {
		return nil, common.ErrUnauthorized
	}
	return h.remote.Query(ctx, ownerID)
}

// Delete removes recordID when the signed-in owner owns it.
func (h *HistoryService) Delete(ctx context.Context, recordID string) bool {
	ownerID, ok := h.identity.OwnerID()
	if !ok {
		h.logger.Warn("Delete of %s rejected: no identity", recordID)
		return false
	}
	if err := h.remote.Delete(ctx, recordID, ownerID); err != nil {
		if errors.Is(err, common.ErrNotOwner) {
			h.logger.Warn("Delete of %s rejected: %s is not the owner", recordID, ownerID)
		} else {
			h.logger.Error("Delete of %s failed: %v", recordID, err)
		}
		return false
	}
	h.logger.Info("Record %s deleted by %s", recordID, ownerID)
	return true
}

// Watch replaces the current subscription with one for ownerID.
func (h *HistoryService) Watch(ctx context.Context, ownerID string, onUpdate func(ownerID string, records []models.RemoteMatch)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unsubscribe != nil {
		if h.watchOwner == ownerID {
			return
		}
		h.unsubscribe()
	}
	h.watchOwner = ownerID
	h.unsubscribe = h.remote.Subscribe(ctx, ownerID, func(records []models.RemoteMatch) {
		onUpdate(ownerID, records)
	})
	h.logger.Info("Watching history for %s", ownerID)
}

// Unwatch cancels the current subscription, if any.
func (h *HistoryService) Unwatch() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unsubscribe == nil {
		return
	}
	h.unsubscribe()
	h.unsubscribe = nil
	h.logger.Info("Stopped watching history for %s", h.watchOwner)
	h.watchOwner = ""
}
