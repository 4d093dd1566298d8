// Package testutil prepares a Postgres database for integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/johndosdos/chatroom/sql/schema"
)

func ProjectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "../../")
	return root
}

// DbInit connects to TEST_DB_URL and migrates a fresh schema. The test is
// skipped when no test database is configured or reachable. The schema is
// reset again during cleanup.
func DbInit(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load(filepath.Join(ProjectRoot(), ".env"))

	testURL := os.Getenv("TEST_DB_URL")
	if testURL == "" {
		t.Skip("TEST_DB_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := pgxpool.New(ctx, testURL)
	if err != nil {
		t.Skipf("could not connect to the postgresql database: %v", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		t.Skipf("database ping failed: %v", err)
	}

	dbForGoose := stdlib.OpenDBFromPool(dbPool)
	if err := schema.Migrate(dbForGoose, true); err != nil {
		dbForGoose.Close()
		dbPool.Close()
		t.Fatalf("migrate error = %+v", err)
	}

	t.Cleanup(func() {
		if err := goose.Reset(dbForGoose, "."); err != nil {
			t.Logf("goose.Reset() error = %+v", err)
		}
		dbForGoose.Close()
		dbPool.Close()
	})

	return dbPool
}
