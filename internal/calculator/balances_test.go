package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(user string, typ models.TransactionType, status models.TransactionStatus, amount string) Entry {
	return Entry{UserID: user, Type: typ, Status: status, Amount: dec(amount)}
}

func TestSummarize(t *testing.T) {
	ledger := []Entry{
		entry("alice", models.TypeContribution, models.StatusCompleted, "100"),
		entry("alice", models.TypeContribution, models.StatusCompleted, "50.25"),
		entry("bob", models.TypeContribution, models.StatusCompleted, "30"),
		entry("alice", models.TypeWithdrawal, models.StatusCompleted, "40"),
		entry("alice", models.TypeWithdrawal, models.StatusPending, "10"),
		entry("bob", models.TypeWithdrawal, models.StatusRejected, "30"),
		entry("bob", models.TypeContribution, models.StatusCancelled, "99"),
	}

	tests := []struct {
		name              string
		userID            string
		wantContributions string
		wantWithdrawals   string
		wantBalance       string
	}{
		{"whole group", "", "180.25", "40", "140.25"},
		{"alice only", "alice", "150.25", "40", "110.25"},
		{"bob only", "bob", "30", "0", "30"},
		{"unknown user", "carol", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(ledger, tt.userID)
			if !got.Contributions.Equal(dec(tt.wantContributions)) {
				t.Errorf("contributions = %s, want %s", got.Contributions, tt.wantContributions)
			}
			if !got.Withdrawals.Equal(dec(tt.wantWithdrawals)) {
				t.Errorf("withdrawals = %s, want %s", got.Withdrawals, tt.wantWithdrawals)
			}
			if !got.Balance.Equal(dec(tt.wantBalance)) {
				t.Errorf("balance = %s, want %s", got.Balance, tt.wantBalance)
			}
			if !Balance(ledger, tt.userID).Equal(got.Balance) {
				t.Errorf("Balance() disagrees with Summarize()")
			}
		})
	}
}

func TestBalance_NoClamping(t *testing.T) {
	// Withdrawals exceeding contributions are impossible through the workflow,
	// but the calculator is a plain aggregation and must report them as-is.
	ledger := []Entry{
		entry("alice", models.TypeContribution, models.StatusCompleted, "10"),
		entry("alice", models.TypeWithdrawal, models.StatusCompleted, "15"),
	}
	if got := Balance(ledger, ""); !got.Equal(dec("-5")) {
		t.Errorf("balance = %s, want -5", got)
	}
}

func TestBalance_Empty(t *testing.T) {
	if got := Balance(nil, ""); !got.IsZero() {
		t.Errorf("balance of empty ledger = %s, want 0", got)
	}
}

func TestCalculateMemberBalances(t *testing.T) {
	ledger := []Entry{
		entry("bob", models.TypeContribution, models.StatusCompleted, "20"),
		entry("alice", models.TypeContribution, models.StatusCompleted, "100"),
		entry("alice", models.TypeWithdrawal, models.StatusCompleted, "25"),
		entry("carol", models.TypeWithdrawal, models.StatusPending, "5"),
	}

	got := CalculateMemberBalances(ledger)
	if len(got) != 2 {
		t.Fatalf("expected 2 member balances, got %d", len(got))
	}
	if got[0].UserID != "alice" || got[1].UserID != "bob" {
		t.Fatalf("unexpected order: %s, %s", got[0].UserID, got[1].UserID)
	}
	if !got[0].NetBalance.Equal(dec("75")) {
		t.Errorf("alice net = %s, want 75", got[0].NetBalance)
	}
	if !got[1].NetBalance.Equal(dec("20")) {
		t.Errorf("bob net = %s, want 20", got[1].NetBalance)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		balance, target, want string
	}{
		{"50", "200", "25"},
		{"200", "200", "100"},
		{"0", "100", "0"},
		{"10", "0", "0"},
	}
	for _, tt := range tests {
		got := Progress(dec(tt.balance), dec(tt.target))
		if !got.Equal(dec(tt.want)) {
			t.Errorf("Progress(%s, %s) = %s, want %s", tt.balance, tt.target, got, tt.want)
		}
	}
}

func TestEntriesFromTransactions(t *testing.T) {
	txns := []*models.Transaction{
		{UserID: "alice", Type: models.TypeContribution, Status: models.StatusCompleted, Amount: dec("12.5")},
	}
	entries := EntriesFromTransactions(txns)
	if len(entries) != 1 || entries[0].UserID != "alice" || !entries[0].Amount.Equal(dec("12.5")) {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
