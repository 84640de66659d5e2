// Package testdb provides a migrated Postgres pool for integration tests.
// It uses TEST_DB_DSN when set and otherwise starts a throwaway container,
// which is shared by the package's tests and removed by Main.
package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"shopverse/internal/migrate"
)

var (
	once      sync.Once
	dsn       string
	setupErr  error
	container testcontainers.Container
)

// Main runs the package's tests and then terminates the container, if one
// was started. Call it from TestMain.
func Main(m *testing.M) {
	m.Run()
	if err := terminate(); err != nil {
		fmt.Fprintf(os.Stderr, "testdb: %v\n", err)
	}
}

func terminate() error {
	if container == nil {
		return nil
	}
	err := testcontainers.TerminateContainer(container)
	container = nil
	if err != nil {
		return fmt.Errorf("terminate postgres container: %w", err)
	}
	return nil
}

// Pool returns a pool on a migrated database with every table truncated.
// The test is skipped when no database can be reached.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	once.Do(func() {
		dsn, setupErr = resolveDSN(ctx)
	})
	if setupErr != nil {
		t.Skipf("postgres not available: %v", setupErr)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres not reachable: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	Reset(ctx, t, pool)
	return pool
}

// Reset truncates every application table.
func Reset(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	const q = `TRUNCATE comments, likes, order_items, orders, cart_items, carts, products, categories, users RESTART IDENTITY CASCADE`
	if _, err := pool.Exec(ctx, q); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func resolveDSN(ctx context.Context) (string, error) {
	if v := os.Getenv("TEST_DB_DSN"); v != "" {
		return v, nil
	}

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "shopverse",
			"POSTGRES_PASSWORD": "shopverse",
			"POSTGRES_DB":       "shopverse_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	container = c
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("container port: %w", err)
	}
	return fmt.Sprintf("postgres://shopverse:shopverse@%s:%s/shopverse_test?sslmode=disable", host, port.Port()), nil
}
