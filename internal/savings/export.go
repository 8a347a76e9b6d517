package savings

import (
	"context"
	"fmt"

	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

// ExportFilter selects the transactions to export. Zero values mean "any".
type ExportFilter struct {
	GroupID string
	UserID  string
	Type    models.TransactionType
}

// ExportRow is a transaction with its group name resolved.
type ExportRow struct {
	*models.Transaction
	GroupName string
}

// ExportTransactions returns every matching transaction, newest first.
//
// Without a group or user filter a regular user exports only their own
// transactions. Exporting another user's rows requires the system admin
// role; exporting a group requires active membership or the system admin
// role.
func (s *Service) ExportTransactions(ctx context.Context, actor Actor, filter ExportFilter) ([]ExportRow, error) {
	if filter.Type != "" && filter.Type != models.TypeContribution && filter.Type != models.TypeWithdrawal {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidField, filter.Type)
	}

	if !actor.IsSystemAdmin() {
		if filter.UserID != "" && filter.UserID != actor.UserID {
			return nil, fmt.Errorf("%w: cannot export another user's transactions", ErrForbidden)
		}
		if filter.GroupID != "" {
			if _, err := authorize(ctx, s.store, actor, filter.GroupID, models.MemberRoleMember); err != nil {
				return nil, err
			}
		}
		if filter.GroupID == "" && filter.UserID == "" {
			filter.UserID = actor.UserID
		}
	}

	txns, _, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		GroupID: filter.GroupID,
		UserID:  filter.UserID,
		Type:    filter.Type,
	})
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	rows := make([]ExportRow, len(txns))
	for i, t := range txns {
		name, ok := names[t.GroupID]
		if !ok {
			group, err := s.store.GetGroup(ctx, t.GroupID)
			if err != nil && !isNotFound(err) {
				return nil, err
			}
			if group != nil {
				name = group.Name
			}
			names[t.GroupID] = name
		}
		rows[i] = ExportRow{Transaction: t, GroupName: name}
	}

	s.logger.Info("Transactions exported", "user_id", actor.UserID, "count", len(rows))
	return rows, nil
}
