package processing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// MatchRecordsChannel is the NOTIFY channel fired by the match_records
// trigger; the payload is the owner id.
const MatchRecordsChannel = "match_records_changed"

// PostgreSQLStorage is the remote store backed by PostgreSQL.
type PostgreSQLStorage struct {
	db      *sql.DB
	connStr string
	logger  common.Logger

	// listenerPing keeps idle LISTEN connections alive.
	listenerPing time.Duration
}

// NewPostgreSQLStorage creates the store. connStr is reused for LISTEN
// connections opened by Subscribe.
func NewPostgreSQLStorage(db *sql.DB, connStr string, logger common.Logger) *PostgreSQLStorage {
	return &PostgreSQLStorage{
		db:           db,
		connStr:      connStr,
		logger:       logger,
		listenerPing: 90 * time.Second,
	}
}

// Create inserts match under ownerID. created_at is assigned by the server.
func (s *PostgreSQLStorage) Create(ctx context.Context, ownerID string, match models.FinishedMatch) (string, error) {
	if ownerID == "" {
		return "", common.ErrUnauthorized
	}

	payload, err := json.Marshal(match)
	if err != nil {
		return "", fmt.Errorf("failed to marshal match: %w", err)
	}

	recordID := uuid.NewString()
	query := `
		INSERT INTO match_records (id, owner_id, match_id, home_team, away_team, home_score, away_score,
			final_time, finished_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		recordID,
		ownerID,
		match.ID,
		match.HomeTeam,
		match.AwayTeam,
		match.HomeScore,
		match.AwayScore,
		match.FinalTime,
		match.FinishedAt,
		payload,
	)
	if err != nil {
		s.logger.Error("Failed to create record for match %s: %v", match.ID, err)
		return "", common.NewStorageError("Failed to create match record", err)
	}

	s.logger.Debug("Created record %s for match %s", recordID, match.ID)
	return recordID, nil
}

// Query returns ownerID's records, newest first.
func (s *PostgreSQLStorage) Query(ctx context.Context, ownerID string) ([]models.RemoteMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, payload, created_at
		FROM match_records
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, common.NewStorageError("Failed to query match records", err)
	}
	defer rows.Close()

	records := make([]models.RemoteMatch, 0)
	for rows.Next() {
		var (
			record  models.RemoteMatch
			payload []byte
		)
		if err := rows.Scan(&record.RecordID, &record.OwnerID, &payload, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		if err := json.Unmarshal(payload, &record.FinishedMatch); err != nil {
			s.logger.Warn("Skipping unreadable record %s: %v", record.RecordID, err)
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match records: %w", err)
	}
	return records, nil
}

// Subscribe LISTENs on MatchRecordsChannel and re-queries ownerID's records
// whenever the owner's rows change or the listener reconnects.
func (s *PostgreSQLStorage) Subscribe(ctx context.Context, ownerID string, onUpdate func([]models.RemoteMatch)) func() {
	push := func(ctx context.Context) {
		records, err := s.Query(ctx, ownerID)
		if err != nil {
			s.logger.Warn("Subscription query for %s failed: %v", ownerID, err)
			onUpdate([]models.RemoteMatch{})
			return
		}
		onUpdate(records)
	}

	listener := pq.NewListener(s.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.logger.Warn("Listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen(MatchRecordsChannel); err != nil {
		s.logger.Error("Failed to listen on %s: %v", MatchRecordsChannel, err)
		listener.Close()
		onUpdate([]models.RemoteMatch{})
		return func() {}
	}

	subCtx, cancel := context.WithCancel(ctx)
	push(subCtx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer listener.Close()

		ticker := time.NewTicker(s.listenerPing)
		defer ticker.Stop()

		for {
			select {
			case <-subCtx.Done():
				return
			case n := <-listener.Notify:
				// nil after a reconnect: changes may have been missed.
				if n == nil || n.Extra == ownerID {
					push(subCtx)
				}
			case <-ticker.C:
				go func() {
					if err := listener.Ping(); err != nil {
						s.logger.Warn("Listener ping failed: %v", err)
					}
				}()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

// Delete removes recordID after checking, under a row lock, that callerID owns it.
func (s *PostgreSQLStorage) Delete(ctx context.Context, recordID, callerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewStorageError("Failed to begin delete", err)
	}
	defer tx.Rollback()

	var ownerID string
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM match_records WHERE id = $1 FOR UPDATE`, recordID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("record %s: %w", recordID, common.ErrNotFound)
	}
	if err != nil {
		return common.NewStorageError("Failed to load match record", err)
	}
	if callerID == "" || ownerID != callerID {
		return common.ErrNotOwner
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM match_records WHERE id = $1`, recordID); err != nil {
		return common.NewStorageError("Failed to delete match record", err)
	}
	if err := tx.Commit(); err != nil {
		return common.NewStorageError("Failed to commit delete", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *PostgreSQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
