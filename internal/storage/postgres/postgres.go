// Package postgres is the Postgres-backed storage.Opener: a single generic
// "collection_entries" table holding every named collection, migrated with
// golang-migrate the way this codebase's cmd/migrate tool already drove
// schema changes for its domain tables.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/daedal00/muse/internal/storage"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Opener is the Postgres-backed storage.Opener.
type Opener struct {
	pool *pgxpool.Pool
}

// NewOpener connects to Postgres and applies the collection_entries
// migration if it has not already run.
func NewOpener(ctx context.Context, dsn string) (*Opener, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage/postgres: failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage/postgres: failed to ping: %w", err)
	}

	if err := migrateUp(dsn); err != nil {
		pool.Close()
		return nil, err
	}

	return &Opener{pool: pool}, nil
}

func migrateUp(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("storage/postgres: loading embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("storage/postgres: creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("storage/postgres: running migrations: %w", err)
	}
	return nil
}

func (o *Opener) Collection(ctx context.Context, name string) (storage.Collection, error) {
	return &collection{pool: o.pool, name: name}, nil
}

func (o *Opener) Close() error {
	o.pool.Close()
	return nil
}

type collection struct {
	pool *pgxpool.Pool
	name string
}

func (c *collection) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.pool.QueryRow(ctx,
		`SELECT value FROM collection_entries WHERE collection = $1 AND key = $2`,
		c.name, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("storage/postgres: get %s/%s: %w", c.name, key, err)
	}
	return value, nil
}

func (c *collection) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO collection_entries (collection, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, key) DO UPDATE SET value = $3, updated_at = NOW()
	`, c.name, key, value)
	if err != nil {
		return fmt.Errorf("storage/postgres: put %s/%s: %w", c.name, key, err)
	}
	return nil
}

func (c *collection) Delete(ctx context.Context, key string) error {
	_, err := c.pool.Exec(ctx,
		`DELETE FROM collection_entries WHERE collection = $1 AND key = $2`, c.name, key)
	if err != nil {
		return fmt.Errorf("storage/postgres: delete %s/%s: %w", c.name, key, err)
	}
	return nil
}

func (c *collection) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT key FROM collection_entries WHERE collection = $1`, c.name)
	if err != nil {
		return nil, fmt.Errorf("storage/postgres: keys %s: %w", c.name, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage/postgres: scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

var _ storage.Opener = (*Opener)(nil)
