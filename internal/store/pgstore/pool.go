// Package pgstore implements the plan catalog and order ledger storage on
// PostgreSQL. Tables live in a dedicated schema named by STORE_NAME.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	maxConns = 10
	minConns = 1
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Backend couples the pgx pool with the Store built on it.
type Backend struct {
	*Store
	pool *pgxpool.Pool
}

// Open connects, creates the schema, applies migrations, and returns a ready
// Backend.
func Open(ctx context.Context, uri, schema string, logger *logrus.Entry) (*Backend, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if schema == "" {
		return nil, errors.New("schema name is required")
	}

	pool, err := NewPool(ctx, uri, schema)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, pool, schema); err != nil {
		pool.Close()
		return nil, err
	}

	if err := RunMigrations(uri, schema, logger); err != nil {
		pool.Close()
		return nil, err
	}

	return &Backend{Store: NewStore(pool), pool: pool}, nil
}

// Ping verifies the database is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b == nil || b.pool == nil {
		return errors.New("postgres backend is not initialized")
	}
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (b *Backend) Close(context.Context) error {
	if b == nil || b.pool == nil {
		return nil
	}
	b.pool.Close()
	return nil
}

// NewPool builds a pgx pool whose connections resolve unqualified table names
// in schema.
func NewPool(ctx context.Context, uri, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates schema when it does not exist yet.
func EnsureSchema(ctx context.Context, db execer, schema string) error {
	if _, err := db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}

// RunMigrations applies the embedded migrations inside schema.
func RunMigrations(uri, schema string, logger *logrus.Entry) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	target, err := migrateURL(uri, schema)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, target)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		version, dirty, _ := m.Version()
		logger.WithFields(logrus.Fields{
			"event":   "postgres_migrations",
			"schema":  schema,
			"version": version,
			"dirty":   dirty,
		}).Info("postgres migrations applied")
	}

	return nil
}

func migrateURL(uri, schema string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}

	query := parsed.Query()
	query.Set("search_path", schema)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
