package repomanager

import (
	"context"
	"database/sql"

	migrations "github.com/motorinps-dev/emby/internal/migrations/postgres"
	"github.com/motorinps-dev/emby/internal/dbx"
	"github.com/motorinps-dev/emby/internal/repositories/accounts"
	"github.com/motorinps-dev/emby/internal/repositories/admins"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations.
type PostgresRepositoryManager struct{}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

// Admins returns an admins.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Admins(db dbx.DBTX) admins.Repository {
	return admins.NewPostgresRepository(db)
}

// RunMigrations sets up goose with the embedded PostgreSQL migrations and
// runs them against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
