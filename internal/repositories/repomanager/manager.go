package repomanager

import (
	"context"
	"database/sql"

	"github.com/motorinps-dev/emby/internal/dbx"
	"github.com/motorinps-dev/emby/internal/repositories/accounts"
	"github.com/motorinps-dev/emby/internal/repositories/admins"
)

// RepositoryManager vends repository implementations for one storage dialect
// and exposes a schema migration hook. Repositories are bound to a DBTX so
// the same constructors work inside and outside transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Admins(db dbx.DBTX) admins.Repository
}
