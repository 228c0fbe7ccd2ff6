package admins

import (
	"context"
	"fmt"
	"time"

	"github.com/motorinps-dev/emby/internal/dbx"
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) AddAdmin(ctx context.Context, chatID int64, username string) error {
	query := `INSERT INTO admins (chat_id, username, added_at) VALUES ($1, $2, $3)
	          ON CONFLICT DO NOTHING`
	return insertIgnoringConflict(ctx, r.db, query, chatID, username, time.Now().UTC())
}

func (r *PostgresRepository) RemoveAdmin(ctx context.Context, chatID int64) error {
	return deleteByChatID(ctx, r.db, `DELETE FROM admins WHERE chat_id = $1`, chatID)
}

func (r *PostgresRepository) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(1) FROM admins WHERE chat_id = $1`, chatID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ListAdmins(ctx context.Context) ([]int64, error) {
	return listChatIDs(ctx, r.db, `SELECT chat_id FROM admins`)
}

func (r *PostgresRepository) AddGroup(ctx context.Context, chatID int64) error {
	query := `INSERT INTO admin_groups (chat_id, added_at) VALUES ($1, $2)
	          ON CONFLICT DO NOTHING`
	return insertIgnoringConflict(ctx, r.db, query, chatID, time.Now().UTC())
}

func (r *PostgresRepository) RemoveGroup(ctx context.Context, chatID int64) error {
	return deleteByChatID(ctx, r.db, `DELETE FROM admin_groups WHERE chat_id = $1`, chatID)
}

func (r *PostgresRepository) ListGroups(ctx context.Context) ([]int64, error) {
	return listChatIDs(ctx, r.db, `SELECT chat_id FROM admin_groups`)
}
