// Package accounts implements the account ledger: the durable record store
// mapping each provisioned media-server account to its lifecycle state.
package accounts

import (
	"context"
	"time"

	"github.com/motorinps-dev/emby/internal/models"
)

// Repository is the narrow mutation surface of the ledger. All writes go
// through it; callers never read-then-write around it.
type Repository interface {
	// Insert records a freshly provisioned account. Returns
	// common.ErrorAlreadyExists when the username or remote ID is already
	// present; existing rows are never overwritten.
	Insert(ctx context.Context, username, remoteID string, createdAt time.Time) error

	// SetFirstLoginIfAbsent sets first_login_at for the account, but only if
	// it is still unset and the account is not deleted. Reports whether a row
	// was updated. The conditional write is the sole concurrency guard
	// against double-counting logins.
	SetFirstLoginIfAbsent(ctx context.Context, remoteID string, loginAt time.Time) (bool, error)

	// ListAwaitingLogin returns non-deleted accounts with no recorded first
	// login, the working set of the login-detection sweep.
	ListAwaitingLogin(ctx context.Context) ([]models.Account, error)

	// FindExpired returns non-deleted accounts whose first login is at least
	// retention ago (inclusive boundary), restricted to usernames matching
	// the provisioning prefix. Ordering is unspecified.
	FindExpired(ctx context.Context, now time.Time, retention time.Duration, prefix string) ([]models.Account, error)

	// MarkDeleted flips is_deleted for the account. Marking an already
	// deleted account again is a no-op success; an unknown remote ID yields
	// common.ErrorNotFound.
	MarkDeleted(ctx context.Context, remoteID string) error

	// ListAll returns every ledger row, most recently created first.
	ListAll(ctx context.Context) ([]models.Account, error)
}
