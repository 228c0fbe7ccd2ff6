package services

import (
	"context"
	"database/sql"

	"github.com/motorinps-dev/emby/internal/dbx"
	"github.com/motorinps-dev/emby/internal/logging"
	"github.com/motorinps-dev/emby/internal/repositories/repomanager"
)

// AdminService manages the administrator and admin-group identity sets.
// Authorization of the caller is the command layer's concern; this service
// only maintains membership.
type AdminService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewAdminService(db *sql.DB, repos repomanager.RepositoryManager, l logging.Logger) *AdminService {
	return &AdminService{db: db, repos: repos, logger: l.With("module", "admins")}
}

// AddAdmin registers an administrator. common.ErrorAlreadyExists for dupes.
func (s *AdminService) AddAdmin(ctx context.Context, chatID int64, username string) error {
	if err := s.repos.Admins(s.db).AddAdmin(ctx, chatID, username); err != nil {
		return err
	}
	s.logger.Info(ctx, "admin added", "chat_id", chatID)
	return nil
}

// RemoveAdmin removes an administrator. common.ErrorNotFound when absent.
func (s *AdminService) RemoveAdmin(ctx context.Context, chatID int64) error {
	if err := s.repos.Admins(s.db).RemoveAdmin(ctx, chatID); err != nil {
		return err
	}
	s.logger.Info(ctx, "admin removed", "chat_id", chatID)
	return nil
}

// IsAdmin reports administrator membership.
func (s *AdminService) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	return s.repos.Admins(s.db).IsAdmin(ctx, chatID)
}

// ListAdmins returns all administrator chat IDs.
func (s *AdminService) ListAdmins(ctx context.Context) ([]int64, error) {
	return s.repos.Admins(s.db).ListAdmins(ctx)
}

// AddGroup registers an admin group.
func (s *AdminService) AddGroup(ctx context.Context, chatID int64) error {
	if err := s.repos.Admins(s.db).AddGroup(ctx, chatID); err != nil {
		return err
	}
	s.logger.Info(ctx, "admin group added", "chat_id", chatID)
	return nil
}

// RemoveGroup removes an admin group.
func (s *AdminService) RemoveGroup(ctx context.Context, chatID int64) error {
	if err := s.repos.Admins(s.db).RemoveGroup(ctx, chatID); err != nil {
		return err
	}
	s.logger.Info(ctx, "admin group removed", "chat_id", chatID)
	return nil
}

// ListGroups returns all admin group chat IDs.
func (s *AdminService) ListGroups(ctx context.Context) ([]int64, error) {
	return s.repos.Admins(s.db).ListGroups(ctx)
}

// Seed registers the bootstrap administrator if it is not present yet. The
// membership check and the insert run in one transaction so a concurrent
// command cannot race the seed.
func (s *AdminService) Seed(ctx context.Context, chatID int64) error {
	if chatID == 0 {
		return nil
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Admins(tx)
		ok, err := repo.IsAdmin(ctx, chatID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := repo.AddAdmin(ctx, chatID, ""); err != nil {
			return err
		}
		s.logger.Info(ctx, "first admin seeded", "chat_id", chatID)
		return nil
	})
}
