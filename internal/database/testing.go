package database

import (
	"context"
	"testing"
	"time"

	"github.com/yourusername/predictive-punter/internal/config"
)

// SetupTestDB creates a test database connection with the schema applied
func SetupTestDB(t *testing.T) *DB {
	cfg, err := config.Load("../../config/config.test.yaml")
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	return db
}

// TeardownTestDB empties the managed tables and closes the connection
func TeardownTestDB(t *testing.T, db *DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.Exec(ctx, "TRUNCATE samples, predictors, predictions, runners, races, meets CASCADE"); err != nil {
		t.Logf("warning: failed to truncate test tables: %v", err)
	}
	db.Close()
}
