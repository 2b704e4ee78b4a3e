package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect opens and pings the PostgreSQL remote store.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return db, nil
}

// Migrate creates the remote schema. Every statement is idempotent.
func Migrate(db *sql.DB) error {
	migrations := []string{
		// Finished matches, one row per upload
		`CREATE TABLE IF NOT EXISTS match_records (
			id VARCHAR(64) PRIMARY KEY,
			owner_id TEXT NOT NULL,
			match_id TEXT NOT NULL,
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			home_score INTEGER NOT NULL DEFAULT 0 CHECK (home_score >= 0),
			away_score INTEGER NOT NULL DEFAULT 0 CHECK (away_score >= 0),
			final_time INTEGER NOT NULL DEFAULT 0,
			finished_at TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		// Widen columns created by earlier schemas; a no-op on TEXT columns
		`ALTER TABLE match_records
			ALTER COLUMN owner_id TYPE TEXT,
			ALTER COLUMN match_id TYPE TEXT,
			ALTER COLUMN home_team TYPE TEXT,
			ALTER COLUMN away_team TYPE TEXT`,
		`CREATE INDEX IF NOT EXISTS idx_match_records_owner_created ON match_records(owner_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_match_records_match_id ON match_records(match_id)`,

		// Change notifications for live history subscriptions
		`CREATE OR REPLACE FUNCTION notify_match_records_changed() RETURNS trigger AS $$
		BEGIN
			IF TG_OP = 'DELETE' THEN
				PERFORM pg_notify('match_records_changed', OLD.owner_id);
				RETURN OLD;
			END IF;
			PERFORM pg_notify('match_records_changed', NEW.owner_id);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS match_records_changed ON match_records`,
		`CREATE TRIGGER match_records_changed
			AFTER INSERT OR UPDATE OR DELETE ON match_records
			FOR EACH ROW EXECUTE FUNCTION notify_match_records_changed()`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
