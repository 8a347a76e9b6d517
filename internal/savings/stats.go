package savings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/calculator"
	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

const (
	recentTransactionsLimit = 5
	recentGroupsLimit       = 5
)

// GroupStats summarizes a group's ledger for one of its members.
type GroupStats struct {
	Group       *models.Group
	Totals      calculator.Totals
	Progress    decimal.Decimal
	MemberCount int
	// User holds the requesting member's own totals.
	User   calculator.Totals
	Recent []*models.Transaction
	// Balances is the per-member breakdown of the completed ledger.
	Balances []calculator.MemberBalance
}

// GroupSummary is one member's position in one group.
type GroupSummary struct {
	GroupID   string
	GroupName string
	calculator.Totals
}

// UserSummary is a user's position across all groups.
type UserSummary struct {
	UserID string
	calculator.Totals
	Groups []GroupSummary
}

// AdminStats is the system-wide dashboard.
type AdminStats struct {
	TotalGroups        int
	TotalUsers         int
	TotalSavings       decimal.Decimal
	PendingWithdrawals int
	RecentGroups       []*models.Group
}

// GetGroupStats returns balances, progress toward the target and the most
// recent completed transactions. Only active members may read it.
func (s *Service) GetGroupStats(ctx context.Context, actor Actor, groupID string) (*GroupStats, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, s.store, actor, groupID, models.MemberRoleMember); err != nil {
		return nil, err
	}

	entries, err := completedEntries(ctx, s.store, storage.TransactionFilter{GroupID: groupID})
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountActiveMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	recent, _, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		GroupID: groupID,
		Status:  models.StatusCompleted,
		Limit:   recentTransactionsLimit,
	})
	if err != nil {
		return nil, err
	}

	totals := calculator.Summarize(entries, "")
	return &GroupStats{
		Group:       group,
		Totals:      totals,
		Progress:    calculator.Progress(totals.Balance, group.TargetAmount),
		MemberCount: count,
		User:        calculator.Summarize(entries, actor.UserID),
		Recent:      recent,
		Balances:    calculator.CalculateMemberBalances(entries),
	}, nil
}

// GetUserSummary returns a user's totals overall and per active group.
// Users may read their own summary; system admins may read anyone's.
func (s *Service) GetUserSummary(ctx context.Context, actor Actor, userID string) (*UserSummary, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.IsSystemAdmin() {
		return nil, fmt.Errorf("%w: cannot view another user's summary", ErrForbidden)
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	txns, _, err := s.store.ListTransactions(ctx, storage.TransactionFilter{UserID: userID, Status: models.StatusCompleted})
	if err != nil {
		return nil, err
	}
	entries := calculator.EntriesFromTransactions(txns)

	byGroup := make(map[string][]calculator.Entry)
	for _, e := range entries {
		byGroup[e.GroupID] = append(byGroup[e.GroupID], e)
	}

	memberships, err := s.store.ListUserMemberships(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	summary := &UserSummary{
		UserID: userID,
		Totals: calculator.Summarize(entries, userID),
		Groups: make([]GroupSummary, 0, len(memberships)),
	}
	for _, m := range memberships {
		group, err := s.store.GetGroup(ctx, m.GroupID)
		if err != nil {
			return nil, err
		}
		summary.Groups = append(summary.Groups, GroupSummary{
			GroupID:   group.ID,
			GroupName: group.Name,
			Totals:    calculator.Summarize(byGroup[group.ID], userID),
		})
	}

	return summary, nil
}

// GetAdminStats returns system-wide counters. System admins only.
func (s *Service) GetAdminStats(ctx context.Context, actor Actor) (*AdminStats, error) {
	if !actor.IsSystemAdmin() {
		return nil, fmt.Errorf("%w: system admin role required", ErrForbidden)
	}

	groups, err := s.store.CountGroups(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	contributions, err := completedEntries(ctx, s.store, storage.TransactionFilter{Type: models.TypeContribution})
	if err != nil {
		return nil, err
	}

	_, pending, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		Type:   models.TypeWithdrawal,
		Status: models.StatusPending,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListRecentGroups(ctx, recentGroupsLimit)
	if err != nil {
		return nil, err
	}

	return &AdminStats{
		TotalGroups:        groups,
		TotalUsers:         users,
		TotalSavings:       calculator.Summarize(contributions, "").Contributions,
		PendingWithdrawals: pending,
		RecentGroups:       recent,
	}, nil
}
