package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

// MemoryDSN opens a private in-memory database, used by tests.
const MemoryDSN = ":memory:"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		cover_image_url TEXT NOT NULL DEFAULT '',
		page_count INTEGER NOT NULL DEFAULT 0,
		publisher TEXT NOT NULL DEFAULT '',
		synopsis TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS list_items (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		book_id TEXT NOT NULL,
		rating INTEGER NOT NULL DEFAULT -1,
		notes TEXT NOT NULL DEFAULT '',
		start_date INTEGER NOT NULL,
		finish_date INTEGER,
		UNIQUE (owner_id, book_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_list_items_owner ON list_items (owner_id)`,
}

// foreignKeysPragma is applied by the driver to every connection it opens.
const foreignKeysPragma = "_pragma=foreign_keys(1)"

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + foreignKeysPragma
	}
	return dsn + "?" + foreignKeysPragma
}

// Connect opens the SQLite database at dsn with foreign keys enforced.
// SQLite allows a single writer, so the pool is capped at one connection;
// this also keeps every query of an in-memory database on the same database.
func Connect(dsn string) (*sqlx.DB, error) {
	pool, err := sqlx.Open("sqlite", withForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	pool.SetMaxOpenConns(1)
	return pool, nil
}

// InitializeDB creates the schema if it is missing.
func InitializeDB(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	slog.InfoContext(ctx, "DB connection initialized and schema verified.")

	return nil
}

// Open connects to dsn and initializes the schema.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	pool, err := Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := InitializeDB(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
