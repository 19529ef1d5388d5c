package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"mmjira/config"
	"mmjira/db"
)

// TestSchema is the schema every database backed test runs against
const TestSchema = "mmjira_test"

// LoadTestConfig loads configuration for tests from environment variables
func LoadTestConfig() (*config.AppConfig, error) {
	// Try to load environment variables from various possible locations
	_ = godotenv.Load("../../.env.test") // From services/<name>/ directory
	_ = godotenv.Load("../.env.test")    // From db/ or handlers/ directory
	_ = godotenv.Load(".env.test")       // From root directory
	_ = godotenv.Load()                  // Default .env file

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: TestSchema,
	}, nil
}

// SetupTestDB connects to the test database and makes sure the schema exists.
// Tests are skipped when no database is configured.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	cfg, err := LoadTestConfig()
	if err != nil {
		t.Skipf("skipping database test: %v", err)
	}

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		t.Skipf("skipping database test: %v", err)
	}

	if err := db.EnsureSchema(context.Background(), dbConn, TestSchema); err != nil {
		dbConn.Close()
		t.Fatalf("failed to prepare test schema: %v", err)
	}

	t.Cleanup(func() { dbConn.Close() })
	return dbConn
}

// UniqueChannelID returns a channel id that will not collide with other test runs
func UniqueChannelID() string {
	return "ch-" + uuid.New().String()
}
