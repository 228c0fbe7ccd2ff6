package admins

import (
	"context"
	"fmt"
	"time"

	"github.com/motorinps-dev/emby/internal/common"
	"github.com/motorinps-dev/emby/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) AddAdmin(ctx context.Context, chatID int64, username string) error {
	query := `INSERT INTO admins (chat_id, username, added_at) VALUES (?, ?, ?)
	          ON CONFLICT DO NOTHING`
	return insertIgnoringConflict(ctx, r.db, query, chatID, username, time.Now().UTC())
}

func (r *SQLiteRepository) RemoveAdmin(ctx context.Context, chatID int64) error {
	return deleteByChatID(ctx, r.db, `DELETE FROM admins WHERE chat_id = ?`, chatID)
}

func (r *SQLiteRepository) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(1) FROM admins WHERE chat_id = ?`, chatID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListAdmins(ctx context.Context) ([]int64, error) {
	return listChatIDs(ctx, r.db, `SELECT chat_id FROM admins`)
}

func (r *SQLiteRepository) AddGroup(ctx context.Context, chatID int64) error {
	query := `INSERT INTO admin_groups (chat_id, added_at) VALUES (?, ?)
	          ON CONFLICT DO NOTHING`
	return insertIgnoringConflict(ctx, r.db, query, chatID, time.Now().UTC())
}

func (r *SQLiteRepository) RemoveGroup(ctx context.Context, chatID int64) error {
	return deleteByChatID(ctx, r.db, `DELETE FROM admin_groups WHERE chat_id = ?`, chatID)
}

func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]int64, error) {
	return listChatIDs(ctx, r.db, `SELECT chat_id FROM admin_groups`)
}

// helpers shared by both identity sets

func insertIgnoringConflict(ctx context.Context, db dbx.DBTX, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
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

func deleteByChatID(ctx context.Context, db dbx.DBTX, query string, chatID int64) error {
	res, err := db.ExecContext(ctx, query, chatID)
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

func listChatIDs(ctx context.Context, db dbx.DBTX, query string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}
