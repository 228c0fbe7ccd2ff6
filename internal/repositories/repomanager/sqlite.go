// Package repomanager selects the storage backend for the account ledger from
// the configured DSN and wires repository constructors together with database
// migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"strings"

	migrations "github.com/motorinps-dev/emby/internal/migrations/sqlite"
	"github.com/motorinps-dev/emby/internal/dbx"
	"github.com/motorinps-dev/emby/internal/repositories/accounts"
	"github.com/motorinps-dev/emby/internal/repositories/admins"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations.
type SQLiteRepositoryManager struct{}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLiteRepository(db)
}

// Admins returns an admins.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Admins(db dbx.DBTX) admins.Repository {
	return admins.NewSQLiteRepository(db)
}

// RunMigrations sets up goose with the embedded SQLite migrations and runs
// them against the provided database connection.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens the database named by dsn and returns it together with the
// matching RepositoryManager. A postgres:// or postgresql:// DSN selects the
// PostgreSQL backend; anything else is treated as a SQLite file path.
func Open(dsn string) (*sql.DB, RepositoryManager, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, &PostgresRepositoryManager{}, nil
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, &SQLiteRepositoryManager{}, nil
}
