package correlate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresKV is the pgx-backed durable key-value table.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV wraps a connection pool.
func NewPostgresKV(pool *pgxpool.Pool) *PostgresKV {
	return &PostgresKV{pool: pool}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded relay_records schema migrations.
func Migrate(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx", driver)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Put upserts a payload under key. Overwrites are accepted (see PutHandle).
func (p *PostgresKV) Put(ctx context.Context, key, payload string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO relay_records (record_key, payload)
		 VALUES ($1, $2)
		 ON CONFLICT (record_key) DO UPDATE SET payload = EXCLUDED.payload`,
		key, payload)
	if err != nil {
		return fmt.Errorf("upsert relay record %s: %w", key, err)
	}
	return nil
}

// Get returns the payload stored under key, or ErrNotFound.
func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	var payload string
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM relay_records WHERE record_key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get relay record %s: %w", key, err)
	}
	return payload, nil
}
