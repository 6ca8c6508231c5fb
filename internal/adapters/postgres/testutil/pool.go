// Package testutil opens a schema-ready pool for adapter contract tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/vitalcoach/coach-api/internal/adapters/postgres"
)

// OpenMigratedPool connects to TEST_DATABASE_URL and applies the schema. The test is skipped
// when the variable is unset.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, url, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("NewPool err=%v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("EnsureSchema err=%v", err)
	}
	return pool
}
