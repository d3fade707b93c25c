// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// Pool sizes the connection pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool suits a single scout server sharing the database with a few
// others.
var DefaultPool = Pool{MaxOpen: 25, MaxIdle: 5, MaxLifetime: 5 * time.Minute}

// New connects to the database at databaseURL, sizes the pool and applies
// pending migrations. ctx bounds the initial ping.
func New(ctx context.Context, databaseURL string, pool Pool) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "scout_schema_migrations"})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migration db driver: %w", err)
	}
	if err := store.Migrate(migrationsFS, "migrations", "postgres", driver); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) FindByID(ctx context.Context, kind model.Kind, id string) (*model.PersistedRecord, error) {
	return queryFindByID(ctx, s.db, kind, id)
}

func (s *PostgresStore) Insert(ctx context.Context, rec *model.PersistedRecord) error {
	return queryInsert(ctx, s.db, rec)
}

func (s *PostgresStore) CompareAndSwap(ctx context.Context, expected, next *model.PersistedRecord) (bool, error) {
	return queryCompareAndSwap(ctx, s.db, expected, next)
}

func (s *PostgresStore) RemoveByID(ctx context.Context, kind model.Kind, id string) (bool, error) {
	return queryRemoveByID(ctx, s.db, kind, id)
}

func (s *PostgresStore) Scan(ctx context.Context, kind model.Kind, filter store.Filter) ([]*model.PersistedRecord, error) {
	return queryScan(ctx, s.db, kind, filter)
}
