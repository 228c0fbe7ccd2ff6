package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/motorinps-dev/emby/internal/common"
	"github.com/motorinps-dev/emby/internal/dbx"
	"github.com/motorinps-dev/emby/internal/models"
)

// PostgresRepository implements Repository on PostgreSQL. Semantics are
// identical to the SQLite variant; only placeholders and boolean literals
// differ.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, username, remoteID string, createdAt time.Time) error {
	query := `INSERT INTO accounts (username, remote_id, created_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, username, remoteID, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) SetFirstLoginIfAbsent(ctx context.Context, remoteID string, loginAt time.Time) (bool, error) {
	query := `UPDATE accounts SET first_login_at = $1
	          WHERE remote_id = $2 AND NOT is_deleted AND first_login_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, loginAt.UTC(), remoteID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ra > 0, nil
}

func (r *PostgresRepository) ListAwaitingLogin(ctx context.Context) ([]models.Account, error) {
	query := `SELECT id, username, remote_id, created_at, first_login_at, is_deleted
	          FROM accounts
	          WHERE NOT is_deleted AND first_login_at IS NULL`
	return r.queryAccounts(ctx, query)
}

func (r *PostgresRepository) FindExpired(ctx context.Context, now time.Time, retention time.Duration, prefix string) ([]models.Account, error) {
	cutoff := now.Add(-retention).UTC()
	query := `SELECT id, username, remote_id, created_at, first_login_at, is_deleted
	          FROM accounts
	          WHERE NOT is_deleted
	            AND first_login_at IS NOT NULL
	            AND first_login_at <= $1
	            AND username LIKE $2`
	return r.queryAccounts(ctx, query, cutoff, prefix+"%")
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, remoteID string) error {
	query := `UPDATE accounts SET is_deleted = TRUE WHERE remote_id = $1`
	res, err := r.db.ExecContext(ctx, query, remoteID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Account, error) {
	query := `SELECT id, username, remote_id, created_at, first_login_at, is_deleted
	          FROM accounts
	          ORDER BY created_at DESC`
	return r.queryAccounts(ctx, query)
}

func (r *PostgresRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Account
	for rows.Next() {
		var a models.Account
		var firstLogin sql.NullTime
		if err := rows.Scan(&a.ID, &a.Username, &a.RemoteID, &a.CreatedAt, &firstLogin, &a.IsDeleted); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if firstLogin.Valid {
			t := firstLogin.Time
			a.FirstLoginAt = &t
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
