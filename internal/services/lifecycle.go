// Package services contains the business logic of the account lifecycle
// service. This file implements LifecycleService: bulk provisioning, the
// login-detection sweep, and the expiry sweep with notification fan-out.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/motorinps-dev/emby/internal/common"
	"github.com/motorinps-dev/emby/internal/config"
	"github.com/motorinps-dev/emby/internal/logging"
	"github.com/motorinps-dev/emby/internal/models"
	"github.com/motorinps-dev/emby/internal/repositories/repomanager"
)

// Gateway is the remote media-server account API as the engine consumes it.
type Gateway interface {
	// CreateUser creates an end-user account and returns its remote ID.
	CreateUser(ctx context.Context, username, password string) (string, error)

	// DeleteUser permanently removes the account.
	DeleteUser(ctx context.Context, remoteID string) error

	// LastActivity returns the most recent usage timestamp, or nil when the
	// account has never been active.
	LastActivity(ctx context.Context, remoteID string) (*time.Time, error)
}

// Notifier delivers one message to one chat. Delivery failures are the
// caller's to log; the engine never retries them.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Entry is one (username, password) pair from the external spreadsheet
// parser. Neither field is trusted beyond the username-prefix check.
type Entry struct {
	Username string
	Password string
}

// EntryIssue explains why one provisioning entry was skipped or failed.
type EntryIssue struct {
	Username string
	Detail   string
}

// ProvisionReport summarizes one bulk-provisioning run.
type ProvisionReport struct {
	Created int
	Skipped int
	Failed  int
	Issues  []EntryIssue
}

// LoginSweepReport summarizes one login-detection sweep.
type LoginSweepReport struct {
	Checked int
	Updated int
	Failed  int
}

// ExpirySweepReport summarizes one expiry sweep.
type ExpirySweepReport struct {
	Candidates int
	Deleted    int
	Failed     int
}

// Stats are ledger totals for reporting.
type Stats struct {
	Total    int
	Active   int
	LoggedIn int
	Deleted  int
}

// LifecycleService drives an account from creation through first-login
// detection to expiry and deletion. The gateway and notifier are injected at
// construction; the service holds no global state.
type LifecycleService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	gateway   Gateway
	notifier  Notifier
	logger    logging.Logger
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewLifecycleService constructs a LifecycleService from its dependencies
// and the service config.
func NewLifecycleService(db *sql.DB, repos repomanager.RepositoryManager, gw Gateway, n Notifier, l logging.Logger, cfg *config.Config) *LifecycleService {
	return &LifecycleService{
		db:        db,
		repos:     repos,
		gateway:   gw,
		notifier:  n,
		logger:    l.With("module", "lifecycle"),
		prefix:    cfg.UsernamePrefix,
		retention: cfg.RetentionPeriod,
		now:       time.Now,
	}
}

// Provision creates accounts for the given entries, one at a time. Entries
// are independent: a bad name is a skip, a remote failure is a failure, and
// neither stops the rest of the batch. A ledger row is written only after
// the remote creation succeeded. Only a storage failure aborts the batch.
func (s *LifecycleService) Provision(ctx context.Context, entries []Entry) (*ProvisionReport, error) {
	repo := s.repos.Accounts(s.db)
	report := &ProvisionReport{}

	for _, e := range entries {
		if !strings.HasPrefix(e.Username, s.prefix) {
			report.Skipped++
			report.Issues = append(report.Issues, EntryIssue{
				Username: e.Username,
				Detail:   fmt.Sprintf("skipped: name does not start with %q", s.prefix),
			})
			continue
		}

		remoteID, err := s.gateway.CreateUser(ctx, e.Username, e.Password)
		if err != nil {
			report.Failed++
			report.Issues = append(report.Issues, EntryIssue{
				Username: e.Username,
				Detail:   "failed: " + err.Error(),
			})
			s.logger.Warn(ctx, "remote account creation failed", "username", e.Username, "error", err)
			continue
		}

		if err := repo.Insert(ctx, e.Username, remoteID, s.now()); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				report.Skipped++
				report.Issues = append(report.Issues, EntryIssue{
					Username: e.Username,
					Detail:   "skipped: already exists",
				})
				continue
			}
			return nil, fmt.Errorf("recording account %q: %w", e.Username, err)
		}

		report.Created++
		s.logger.Info(ctx, "account provisioned", "username", e.Username, "remote_id", remoteID)
	}

	return report, nil
}

// DetectLogins queries the gateway for every account still awaiting its
// first login and records the observed activity timestamp. The conditional
// ledger write makes the sweep idempotent: rerunning it, even concurrently,
// records each first login at most once. Remote failures skip the account
// until the next sweep.
func (s *LifecycleService) DetectLogins(ctx context.Context) (*LoginSweepReport, error) {
	log := s.logger.With("sweep", "logins", "run_id", uuid.NewString())

	repo := s.repos.Accounts(s.db)
	pending, err := repo.ListAwaitingLogin(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts awaiting login: %w", err)
	}

	report := &LoginSweepReport{}
	for _, a := range pending {
		report.Checked++

		loginAt, err := s.gateway.LastActivity(ctx, a.RemoteID)
		if err != nil {
			report.Failed++
			log.Warn(ctx, "activity check failed", "username", a.Username, "error", err)
			continue
		}
		if loginAt == nil {
			continue
		}

		updated, err := repo.SetFirstLoginIfAbsent(ctx, a.RemoteID, *loginAt)
		if err != nil {
			return report, fmt.Errorf("recording first login for %q: %w", a.Username, err)
		}
		if updated {
			report.Updated++
			log.Info(ctx, "first login recorded", "username", a.Username, "first_login_at", *loginAt)
		}
	}

	if report.Updated > 0 {
		log.Info(ctx, "login sweep finished", "checked", report.Checked, "updated", report.Updated)
	}
	return report, nil
}

// ExpireAccounts deletes every account whose first login is at least the
// retention period ago, marks it deleted in the ledger, and fans a deletion
// event out to all registered admins and groups. A remote delete failure
// leaves the account untouched; the next sweep retries it. Per-account and
// per-recipient failures never stop the rest of the batch.
func (s *LifecycleService) ExpireAccounts(ctx context.Context) (*ExpirySweepReport, error) {
	log := s.logger.With("sweep", "expiry", "run_id", uuid.NewString())

	repo := s.repos.Accounts(s.db)
	now := s.now()

	expired, err := repo.FindExpired(ctx, now, s.retention, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("finding expired accounts: %w", err)
	}

	report := &ExpirySweepReport{Candidates: len(expired)}
	if len(expired) == 0 {
		return report, nil
	}
	log.Info(ctx, "accounts due for deletion", "count", len(expired))

	adminRepo := s.repos.Admins(s.db)
	adminIDs, err := adminRepo.ListAdmins(ctx)
	if err != nil {
		return report, fmt.Errorf("listing admins: %w", err)
	}
	groupIDs, err := adminRepo.ListGroups(ctx)
	if err != nil {
		return report, fmt.Errorf("listing admin groups: %w", err)
	}

	for _, a := range expired {
		if err := s.gateway.DeleteUser(ctx, a.RemoteID); err != nil {
			report.Failed++
			log.Warn(ctx, "remote deletion failed, will retry next sweep", "username", a.Username, "error", err)
			continue
		}

		if err := repo.MarkDeleted(ctx, a.RemoteID); err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				return report, fmt.Errorf("marking %q deleted: %w", a.Username, err)
			}
			log.Error(ctx, "deleted account missing from ledger", "remote_id", a.RemoteID)
		}
		report.Deleted++

		event := models.DeletionEvent{
			Username:     a.Username,
			RemoteID:     a.RemoteID,
			FirstLoginAt: *a.FirstLoginAt,
			Reason:       models.ReasonRetentionExpired,
		}
		s.notifyAll(ctx, log, event, adminIDs, groupIDs)
		log.Info(ctx, "account deleted", "username", a.Username, "remote_id", a.RemoteID)
	}

	return report, nil
}

// ListAccounts returns every ledger row, most recently created first.
func (s *LifecycleService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.repos.Accounts(s.db).ListAll(ctx)
}

// AccountStats computes ledger totals for reporting.
func (s *LifecycleService) AccountStats(ctx context.Context) (*Stats, error) {
	list, err := s.repos.Accounts(s.db).ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(list)}
	for _, a := range list {
		if a.IsDeleted {
			stats.Deleted++
		} else {
			stats.Active++
		}
		if a.FirstLoginAt != nil {
			stats.LoggedIn++
		}
	}
	return stats, nil
}

func (s *LifecycleService) notifyAll(ctx context.Context, log logging.Logger, event models.DeletionEvent, adminIDs, groupIDs []int64) {
	text := formatDeletion(event)
	for _, id := range append(append([]int64{}, adminIDs...), groupIDs...) {
		if err := s.notifier.SendMessage(ctx, id, text); err != nil {
			log.Warn(ctx, "notification delivery failed", "chat_id", id, "error", err)
		}
	}
}

func formatDeletion(e models.DeletionEvent) string {
	return fmt.Sprintf(
		"Account deleted\n\nUsername: %s\nFirst login: %s\nReason: %s",
		e.Username, e.FirstLoginAt.Format("02.01.2006 15:04"), e.Reason,
	)
}
