package business

import (
	"context"

	"wtr-service/pkg/models"
)

// RemoteStore is the per-owner document store finished matches are uploaded to.
type RemoteStore interface {
	// Create stores match under ownerID and returns the store-assigned record id.
	Create(ctx context.Context, ownerID string, match models.FinishedMatch) (string, error)

	// Query returns ownerID's records, newest creation marker first.
	Query(ctx context.Context, ownerID string) ([]models.RemoteMatch, error)

	// Subscribe pushes ownerID's full ordered record list on subscribe and
	// after every change. Failures are delivered as an empty list.
	Subscribe(ctx context.Context, ownerID string, onUpdate func([]models.RemoteMatch)) (unsubscribe func())

	// Delete removes recordID only when callerID owns it.
	Delete(ctx context.Context, recordID, callerID string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// PendingQueue is the durable local staging area for finished matches.
type PendingQueue interface {
	Enqueue(ctx context.Context, match models.FinishedMatch) (string, error)
	Dequeue(ctx context.Context, tempID string) error
	List(ctx context.Context) []models.PendingMatch
}

// LegacySource reads and drains the deprecated local history list.
type LegacySource interface {
	List(ctx context.Context) []models.LegacyMatch
	Take(ctx context.Context, identifier string) (models.LegacyMatch, error)
}

// NetworkStatus reports device connectivity.
type NetworkStatus interface {
	IsOnline() bool
}

// IdentitySource reports the authenticated owner, if any.
type IdentitySource interface {
	OwnerID() (string, bool)
}

// Archiver persists a finished match snapshot.
type Archiver interface {
	Archive(ctx context.Context, match models.FinishedMatch) ArchiveOutcome
}

// MatchListener observes the active match.
type MatchListener interface {
	MatchUpdated(match models.Match)
	MatchFinished(match models.FinishedMatch)
}

// UploadListener observes successful remote uploads.
type UploadListener interface {
	MatchUploaded(ctx context.Context, recordID, ownerID string, match models.FinishedMatch)
}

// FailureNotifier alerts operators about persistence failures.
type FailureNotifier interface {
	NotifyError(component string, message string) error
}
