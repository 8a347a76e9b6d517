// Package savings implements the group savings workflows: group lifecycle,
// membership, the contribution and withdrawal ledger, and the reports built
// on top of it.
//
// Every state-changing operation runs its read-validate-write sequence inside
// a single storage unit of work. Notifications are handed to a Notifier only
// after that unit of work commits, so a delivery problem can never undo or
// fail a ledger write.
package savings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

// Actor is the already-authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// IsSystemAdmin reports whether the actor holds the system-wide admin role.
func (a Actor) IsSystemAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Notifier fans a notice out to recipients. Implementations persist one
// notification per recipient and deliver email on a best-effort basis; they
// never report failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, recipientIDs []string, transactionID, message string, typ models.NotificationType)
}

// Service holds the savings workflows.
type Service struct {
	store    storage.Store
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a Service over store. notifier may be nil, in which case
// ledger events produce no notifications.
func NewService(store storage.Store, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

// authorize returns the actor's active membership in groupID if it grants
// role. MemberRoleMember is satisfied by any active membership;
// MemberRoleAdmin requires an active admin membership.
func authorize(ctx context.Context, r storage.MembershipRepo, actor Actor, groupID string, role models.MemberRole) (*models.Membership, error) {
	m, err := r.GetMembership(ctx, groupID, actor.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: not a member of group %s", ErrForbidden, groupID)
		}
		return nil, err
	}
	if !m.IsActive {
		return nil, fmt.Errorf("%w: not a member of group %s", ErrForbidden, groupID)
	}
	if role == models.MemberRoleAdmin && m.Role != models.MemberRoleAdmin {
		return nil, fmt.Errorf("%w: admin role required in group %s", ErrForbidden, groupID)
	}
	return m, nil
}

// activeMembership returns the membership only if it exists and is active.
// A nil result with nil error means the user is not an active member.
func activeMembership(ctx context.Context, r storage.MembershipRepo, groupID, userID string) (*models.Membership, error) {
	m, err := r.GetMembership(ctx, groupID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !m.IsActive {
		return nil, nil
	}
	return m, nil
}

func (s *Service) notify(ctx context.Context, recipients []string, transactionID, message string, typ models.NotificationType) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}
	s.notifier.Notify(ctx, recipients, transactionID, message, typ)
}
