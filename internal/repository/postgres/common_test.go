package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/evalpipe/evalpipe/internal/config"
	"github.com/evalpipe/evalpipe/internal/pkg/database"
)

// testPostgresConfig builds a config from the integration test
// environment, or skips the test when none is configured.
func testPostgresConfig(t *testing.T) config.PostgresConfig {
	if os.Getenv("POSTGRES_TEST_HOST") == "" {
		t.Skip("Skipping integration test: POSTGRES_TEST_HOST not set")
	}

	cfg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_TEST_HOST"),
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}

	if cfg.Database == "" {
		cfg.Database = "test_evalpipe"
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}

	return cfg
}

// getTestDB returns a pgx pool for integration tests.
func getTestDB(t *testing.T) *database.PostgresDB {
	cfg := testPostgresConfig(t)

	db, err := database.NewPostgres(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}

	return db
}

// getTestSQLX returns a sqlx handle for integration tests.
func getTestSQLX(t *testing.T) *sqlx.DB {
	cfg := testPostgresConfig(t)

	db, err := database.NewSQLX(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}

	return db
}

// cleanupEvaluators removes test evaluators from the database
func cleanupEvaluators(t *testing.T, db *database.PostgresDB, ids ...string) {
	ctx := context.Background()
	for _, id := range ids {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM evaluators WHERE id = $1", id)
	}
}
