package clickhouse

import (
	"context"
	"os"
	"testing"

	"github.com/evalpipe/evalpipe/internal/config"
	"github.com/evalpipe/evalpipe/internal/pkg/database"
)

// getTestDB returns a ClickHouse connection for integration tests.
// Returns nil if the database is not available (skips tests).
func getTestDB(t *testing.T) *database.ClickHouseDB {
	if os.Getenv("CLICKHOUSE_TEST_HOST") == "" {
		t.Skip("Skipping integration test: CLICKHOUSE_TEST_HOST not set")
		return nil
	}

	cfg := config.ClickHouseConfig{
		Host:     os.Getenv("CLICKHOUSE_TEST_HOST"),
		Port:     9000,
		User:     os.Getenv("CLICKHOUSE_TEST_USER"),
		Password: os.Getenv("CLICKHOUSE_TEST_PASS"),
		Database: os.Getenv("CLICKHOUSE_TEST_DB"),
	}

	if cfg.Database == "" {
		cfg.Database = "test_evalpipe"
	}
	if cfg.User == "" {
		cfg.User = "default"
	}

	db, err := database.NewClickHouse(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to ClickHouse: %v", err)
		return nil
	}

	return db
}
