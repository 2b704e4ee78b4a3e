package processing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
	_ "modernc.org/sqlite"

	"wtr-service/pkg/common"
)

// Local storage keys.
const (
	PendingMatchesKey = "wtr_pending_matches"
	LegacyMatchesKey  = "wtr_matches"
)

const localBucket = "local_storage"

// KVStore is a durable device-local key/value store. Get returns
// common.ErrNotFound for missing keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// BoltKV is a BoltDB-backed KVStore.
type BoltKV struct {
	db *bbolt.DB
}

// OpenBoltKV opens (creating if needed) a BoltDB file at path.
func OpenBoltKV(path string) (*BoltKV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(localBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create local bucket: %w", err)
	}
	return &BoltKV{db: db}, nil
}

func (s *BoltKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(localBucket))
		if bucket == nil {
			return fmt.Errorf("local bucket is missing")
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return common.ErrNotFound
		}
		// raw is only valid inside the transaction.
		value = append([]byte(nil), raw...)
		return nil
	})
	return value, err
}

func (s *BoltKV) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(localBucket))
		if bucket == nil {
			return fmt.Errorf("local bucket is missing")
		}
		return bucket.Put([]byte(key), value)
	})
}

func (s *BoltKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SQLiteKV is a SQLite-backed KVStore with a single key/value table.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLiteKV opens (creating if needed) a SQLite file at path.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	// Single writer per device.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS local_storage (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create local schema: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// OpenKV opens the local store selected by driver ("bolt" or "sqlite").
func OpenKV(driver, path string) (KVStore, error) {
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local store directory: %w", err)
	}
	switch driver {
	case "bolt", "":
		return OpenBoltKV(path)
	case "sqlite":
		return OpenSQLiteKV(path)
	default:
		return nil, fmt.Errorf("unknown local store driver %q", driver)
	}
}
