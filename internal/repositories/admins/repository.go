// Package admins implements the administrator and admin-group identity sets:
// chat IDs allowed to drive the service and addressed by deletion
// notifications.
package admins

import "context"

// Repository provides add/remove/membership operations for both identity
// sets. There is no lifecycle beyond set membership.
type Repository interface {
	// AddAdmin registers an administrator chat ID. Duplicate IDs yield
	// common.ErrorAlreadyExists.
	AddAdmin(ctx context.Context, chatID int64, username string) error

	// RemoveAdmin removes an administrator. Unknown IDs yield
	// common.ErrorNotFound.
	RemoveAdmin(ctx context.Context, chatID int64) error

	// IsAdmin reports administrator membership.
	IsAdmin(ctx context.Context, chatID int64) (bool, error)

	// ListAdmins returns all administrator chat IDs.
	ListAdmins(ctx context.Context) ([]int64, error)

	// AddGroup registers an admin group chat ID.
	AddGroup(ctx context.Context, chatID int64) error

	// RemoveGroup removes an admin group.
	RemoveGroup(ctx context.Context, chatID int64) error

	// ListGroups returns all admin group chat IDs.
	ListGroups(ctx context.Context) ([]int64, error)
}
