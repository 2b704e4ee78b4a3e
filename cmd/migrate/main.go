package main

import (
	"os"
	"path/filepath"
	"sort"

	"wtr-service/config"
	"wtr-service/database"
	"wtr-service/logger"
)

// migrate creates the remote schema and then applies any extra SQL files
// found in MIGRATIONS_DIR (default database/migrations), in name order.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RemoteStore != "postgres" {
		logger.Fatalf("Nothing to migrate for REMOTE_STORE=%s", cfg.RemoteStore)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Println("Connected to database successfully")

	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Println("Base schema is up to date")

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "database/migrations"
	}
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		logger.Fatalf("Failed to read migrations directory: %v", err)
	}
	if len(files) == 0 {
		logger.Println("No extra migration files found")
		return
	}
	sort.Strings(files)

	for _, file := range files {
		logger.Printf("Running migration: %s", filepath.Base(file))

		content, err := os.ReadFile(file)
		if err != nil {
			logger.Fatalf("Failed to read migration file %s: %v", file, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			logger.Fatalf("Failed to execute migration %s: %v", file, err)
		}

		logger.Printf("Migration %s completed", filepath.Base(file))
	}
}
