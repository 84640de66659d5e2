// Package migrate applies the schema in sql/, which is embedded into every
// binary that imports it.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var schema embed.FS

// Apply brings the database up to the latest embedded version and logs the
// version it ends at. A nil logger discards output.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	m, closeDB, err := open(ctx, pool)
	if err != nil {
		return err
	}
	defer closeDB()
	defer m.Close()

	if _, dirty, err := m.Version(); err == nil && dirty {
		return errors.New("migrate up: database is dirty after a failed migration; fix the schema and force the version before retrying")
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Printf("schema already current")
	case err != nil:
		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Printf("schema at version %d", version)
	return nil
}

// Version reports the applied schema version; ok is false on an empty database.
func Version(ctx context.Context, pool *pgxpool.Pool) (version uint, ok bool, err error) {
	m, closeDB, err := open(ctx, pool)
	if err != nil {
		return 0, false, err
	}
	defer closeDB()
	defer m.Close()

	version, _, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, true, nil
}

// open builds a migrator over a database/sql handle on the pool's DSN;
// golang-migrate's postgres driver does not accept a pgx pool.
func open(ctx context.Context, pool *pgxpool.Pool) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(schema, "sql")
	if err != nil {
		return nil, nil, fmt.Errorf("read embedded schema: %w", err)
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return nil, nil, fmt.Errorf("open sql db: %w", err)
	}
	closeDB := func() { _ = sqlDB.Close() }
	if err := sqlDB.PingContext(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("ping sql db: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("init postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, closeDB, nil
}
