package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Entry represents a ledger row with the minimal information needed for balance calculations.
type Entry struct {
	UserID  string
	GroupID string
	Type    models.TransactionType
	Status  models.TransactionStatus
	Amount  decimal.Decimal
}

// Totals is the aggregate of completed ledger entries.
type Totals struct {
	Contributions decimal.Decimal
	Withdrawals   decimal.Decimal
	Balance       decimal.Decimal // Contributions - Withdrawals, never clamped
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	UserID        string
	Contributions decimal.Decimal
	Withdrawals   decimal.Decimal
	NetBalance    decimal.Decimal
}

// EntriesFromTransactions converts ledger rows to calculator entries.
func EntriesFromTransactions(txns []*models.Transaction) []Entry {
	entries := make([]Entry, len(txns))
	for i, t := range txns {
		entries[i] = Entry{
			UserID:  t.UserID,
			GroupID: t.GroupID,
			Type:    t.Type,
			Status:  t.Status,
			Amount:  t.Amount,
		}
	}
	return entries
}

// Summarize aggregates completed entries. When userID is non-empty only that
// user's entries are counted; otherwise the whole set is.
//
// Pending, rejected and cancelled entries never affect the result.
func Summarize(entries []Entry, userID string) Totals {
	totals := Totals{
		Contributions: decimal.Zero,
		Withdrawals:   decimal.Zero,
	}

	for _, e := range entries {
		if e.Status != models.StatusCompleted {
			continue
		}
		if userID != "" && e.UserID != userID {
			continue
		}
		switch e.Type {
		case models.TypeContribution:
			totals.Contributions = totals.Contributions.Add(e.Amount)
		case models.TypeWithdrawal:
			totals.Withdrawals = totals.Withdrawals.Add(e.Amount)
		}
	}

	totals.Balance = totals.Contributions.Sub(totals.Withdrawals)
	return totals
}

// Balance computes sum(completed contributions) - sum(completed withdrawals),
// scoped to userID when it is non-empty.
func Balance(entries []Entry, userID string) decimal.Decimal {
	return Summarize(entries, userID).Balance
}

// CalculateMemberBalances computes per-user totals over the given entries,
// sorted by user ID so results are deterministic.
func CalculateMemberBalances(entries []Entry) []MemberBalance {
	balances := make(map[string]*MemberBalance)

	for _, e := range entries {
		if e.Status != models.StatusCompleted {
			continue
		}
		bal, exists := balances[e.UserID]
		if !exists {
			bal = &MemberBalance{
				UserID:        e.UserID,
				Contributions: decimal.Zero,
				Withdrawals:   decimal.Zero,
			}
			balances[e.UserID] = bal
		}
		switch e.Type {
		case models.TypeContribution:
			bal.Contributions = bal.Contributions.Add(e.Amount)
		case models.TypeWithdrawal:
			bal.Withdrawals = bal.Withdrawals.Add(e.Amount)
		}
	}

	result := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		bal.NetBalance = bal.Contributions.Sub(bal.Withdrawals)
		result = append(result, *bal)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})

	return result
}

// Progress returns balance as a percentage of target.
// A zero or negative target yields zero.
func Progress(balance, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	return balance.Div(target).Mul(hundred)
}
