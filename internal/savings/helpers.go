package savings

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/calculator"
	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Page is a limit/offset window. Zero values select the defaults.
type Page struct {
	Limit  int
	Offset int
}

// Normalize applies the default limit, the limit cap and a non-negative offset.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// completedEntries loads the completed ledger rows matching filter.
func completedEntries(ctx context.Context, r storage.TransactionRepo, filter storage.TransactionFilter) ([]calculator.Entry, error) {
	filter.Status = models.StatusCompleted
	filter.Limit, filter.Offset = 0, 0
	txns, _, err := r.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return calculator.EntriesFromTransactions(txns), nil
}

// Balance derives the balance of a group, or of one member inside it when
// userID is set, from the completed ledger.
func (s *Service) Balance(ctx context.Context, groupID, userID string) (decimal.Decimal, error) {
	return balance(ctx, s.store, groupID, userID)
}

func balance(ctx context.Context, r storage.TransactionRepo, groupID, userID string) (decimal.Decimal, error) {
	entries, err := completedEntries(ctx, r, storage.TransactionFilter{GroupID: groupID, UserID: userID})
	if err != nil {
		return decimal.Zero, err
	}
	return calculator.Balance(entries, userID), nil
}
