// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStaleWrite is returned when a guarded update matched no row because
	// the row changed after it was read.
	ErrStaleWrite = errors.New("row was modified concurrently")
)

// UserRepo persists user accounts.
type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to user.
	// Users that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// ListSystemAdmins returns every active user with the admin role.
	ListSystemAdmins(ctx context.Context) ([]*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// GroupRepo persists groups.
type GroupRepo interface {
	// CreateGroup persists a new group. group.ID and timestamps are
	// populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetGroupByJoinCode(ctx context.Context, code string) (*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	ListPublicActiveGroups(ctx context.Context) ([]*models.Group, error)
	ListRecentGroups(ctx context.Context, limit int) ([]*models.Group, error)
	CountGroups(ctx context.Context) (int, error)
}

// MembershipRepo persists the (user, group, role) relation.
// Rows are never deleted, only deactivated.
type MembershipRepo interface {
	CreateMembership(ctx context.Context, m *models.Membership) error

	// GetMembership returns the membership row regardless of its active flag.
	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)
	UpdateMembership(ctx context.Context, m *models.Membership) error
	CountActiveMembers(ctx context.Context, groupID string) (int, error)
	CountActiveAdmins(ctx context.Context, groupID string) (int, error)
	ListActiveMembers(ctx context.Context, groupID string) ([]*models.Membership, error)

	// ListUserMemberships returns the user's memberships, optionally only active ones.
	ListUserMemberships(ctx context.Context, userID string, activeOnly bool) ([]*models.Membership, error)
}

// TransactionFilter narrows ListTransactions. Zero values mean "any".
// Limit 0 returns every matching row.
type TransactionFilter struct {
	GroupID string
	UserID  string
	Type    models.TransactionType
	Status  models.TransactionStatus
	Limit   int
	Offset  int
}

// TransactionRepo persists the ledger.
type TransactionRepo interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// UpdateTransactionStatus writes the processing fields of t only if the
	// stored status still equals from. Returns ErrStaleWrite otherwise.
	UpdateTransactionStatus(ctx context.Context, t *models.Transaction, from models.TransactionStatus) error

	// ListTransactions returns matching rows newest first plus the total
	// count of matching rows ignoring Limit and Offset.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*models.Transaction, int, error)
}

// NotificationRepo persists in-app notifications.
type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)

	// ListNotifications returns the recipient's notices newest first plus
	// the total count of matching rows.
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*models.Notification, int, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error)
	SetEmailStatus(ctx context.Context, id string, status models.EmailStatus) error
}

// Repos bundles every repository. Both the store itself and the handle
// passed to WithTx implement it.
type Repos interface {
	UserRepo
	GroupRepo
	MembershipRepo
	TransactionRepo
	NotificationRepo
}

// Store defines the interface for savings storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	Repos

	// WithTx runs fn inside a single unit of work. The transaction commits
	// when fn returns nil and rolls back otherwise. Implementations must
	// serialize concurrent units of work that write the same rows.
	WithTx(ctx context.Context, fn func(tx Repos) error) error

	// Close releases any resources held by the store.
	Close() error
}
