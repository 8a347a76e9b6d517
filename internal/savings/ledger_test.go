package savings

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

func (e *testEnv) contribute(t *testing.T, actor Actor, groupID, amount string) *models.Transaction {
	t.Helper()
	txn, err := e.svc.Contribute(e.ctx, actor, groupID, ContributionInput{Amount: amount, PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	return txn
}

func (e *testEnv) balance(t *testing.T, groupID, userID string) decimal.Decimal {
	t.Helper()
	b, err := e.svc.Balance(e.ctx, groupID, userID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	return b
}

func (e *testEnv) notifications(t *testing.T, userID string) []*models.Notification {
	t.Helper()
	list, _, err := e.store.ListNotifications(e.ctx, userID, false, 100, 0)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	return list
}

func TestContribute(t *testing.T) {
	env := setupTestService(t)
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	group := env.group(t, alice, 5, true)

	tests := []struct {
		name    string
		actor   Actor
		groupID string
		in      ContributionInput
		wantErr error
	}{
		{"member contributes", alice, group.ID, ContributionInput{Amount: "100", PaymentMethod: "mpesa"}, nil},
		{"missing payment method", alice, group.ID, ContributionInput{Amount: "100"}, ErrMissingField},
		{"missing amount", alice, group.ID, ContributionInput{PaymentMethod: "cash"}, ErrMissingField},
		{"negative amount", alice, group.ID, ContributionInput{Amount: "-5", PaymentMethod: "cash"}, ErrInvalidAmount},
		{"non-member", bob, group.ID, ContributionInput{Amount: "10", PaymentMethod: "cash"}, ErrForbidden},
		{"missing group", alice, "missing", ContributionInput{Amount: "10", PaymentMethod: "cash"}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := env.svc.Contribute(env.ctx, tt.actor, tt.groupID, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Contribute failed: %v", err)
			}
			if txn.Status != models.StatusCompleted || txn.ProcessedAt == 0 {
				t.Errorf("Expected completed contribution, got status=%s processedAt=%d", txn.Status, txn.ProcessedAt)
			}
		})
	}

	t.Run("inactive group", func(t *testing.T) {
		closed := env.group(t, alice, 5, true)
		if _, err := env.svc.UpdateGroup(env.ctx, alice, closed.ID, UpdateGroupInput{Status: strPtr("completed")}); err != nil {
			t.Fatalf("UpdateGroup failed: %v", err)
		}
		_, err := env.svc.Contribute(env.ctx, alice, closed.ID, ContributionInput{Amount: "10", PaymentMethod: "cash"})
		if !errors.Is(err, ErrGroupNotActive) {
			t.Errorf("Expected ErrGroupNotActive, got %v", err)
		}
	})
}

func TestContributionNotifiesAdmins(t *testing.T) {
	env := setupTestService(t)
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	root := env.user(t, "root", models.RoleAdmin)
	group := env.group(t, alice, 5, true)

	// root is both a system admin and a group admin and must be notified once.
	if _, err := env.svc.JoinGroup(env.ctx, root, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	m, err := env.store.GetMembership(env.ctx, group.ID, root.UserID)
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	m.Role = models.MemberRoleAdmin
	if err := env.store.UpdateMembership(env.ctx, m); err != nil {
		t.Fatalf("UpdateMembership failed: %v", err)
	}
	if _, err := env.svc.JoinGroup(env.ctx, bob, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	env.contribute(t, bob, group.ID, "40")

	if got := len(env.notifications(t, alice.UserID)); got != 1 {
		t.Errorf("Expected 1 notification for group admin, got %d", got)
	}
	rootNotes := env.notifications(t, root.UserID)
	if len(rootNotes) != 1 {
		t.Fatalf("Expected 1 notification for system admin, got %d", len(rootNotes))
	}
	if got := len(env.notifications(t, bob.UserID)); got != 0 {
		t.Errorf("Expected no notification for the contributor, got %d", got)
	}

	n := rootNotes[0]
	if n.Type != models.NotifyContribution {
		t.Errorf("Type mismatch: got %s", n.Type)
	}
	if !strings.Contains(n.Message, "$40.00") || !strings.Contains(n.Message, "Holiday Fund") {
		t.Errorf("Unexpected message: %s", n.Message)
	}
	if n.EmailStatus != models.EmailSkipped {
		t.Errorf("Expected skipped email without a sender, got %s", n.EmailStatus)
	}
}

func TestWithdrawalRejectedScenario(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	env.contribute(t, member, group.ID, "100")

	_, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "150"})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}
	_, total, err := env.store.ListTransactions(env.ctx, storageFilter(group.ID, models.TypeWithdrawal))
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("Expected no withdrawal rows after a refused request, got %d", total)
	}

	txn, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "100"})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if txn.Status != models.StatusPending {
		t.Fatalf("Expected pending, got %s", txn.Status)
	}

	requestNotes := env.notifications(t, admin.UserID)
	if len(requestNotes) != 2 || requestNotes[0].Type != models.NotifyWithdrawalRequest {
		t.Fatalf("Expected withdrawal request notification for admin, got %d notes", len(requestNotes))
	}

	processed, err := env.svc.ProcessWithdrawal(env.ctx, admin, group.ID, txn.ID, ProcessInput{Decision: "rejected", Remarks: "test"})
	if err != nil {
		t.Fatalf("ProcessWithdrawal failed: %v", err)
	}
	if processed.Status != models.StatusRejected {
		t.Errorf("Status mismatch: got %s", processed.Status)
	}

	if got := env.balance(t, group.ID, member.UserID); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance 100, got %s", got)
	}

	notes := env.notifications(t, member.UserID)
	if len(notes) != 1 {
		t.Fatalf("Expected 1 notification for requester, got %d", len(notes))
	}
	if notes[0].Type != models.NotifyWithdrawalRejected || !strings.Contains(notes[0].Message, "test") {
		t.Errorf("Unexpected notification: type=%s message=%s", notes[0].Type, notes[0].Message)
	}
}

func TestWithdrawalApprovedScenario(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	env.contribute(t, member, group.ID, "100")
	txn, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "100"})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	processed, err := env.svc.ProcessWithdrawal(env.ctx, admin, group.ID, txn.ID, ProcessInput{Decision: "completed"})
	if err != nil {
		t.Fatalf("ProcessWithdrawal failed: %v", err)
	}

	stored, err := env.store.GetTransaction(env.ctx, txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if stored.Status != models.StatusCompleted {
		t.Errorf("Status mismatch: got %s", stored.Status)
	}
	if stored.ApprovedBy != admin.UserID {
		t.Errorf("ApprovedBy mismatch: got %s, want %s", stored.ApprovedBy, admin.UserID)
	}
	if stored.ProcessedAt == 0 || processed.ProcessedAt != stored.ProcessedAt {
		t.Errorf("Expected processedAt to be set, got %d", stored.ProcessedAt)
	}
	if got := env.balance(t, group.ID, member.UserID); !got.IsZero() {
		t.Errorf("Expected balance 0, got %s", got)
	}

	notes := env.notifications(t, member.UserID)
	if len(notes) != 1 || !strings.Contains(notes[0].Message, "approved by admin") {
		t.Errorf("Unexpected requester notifications: %+v", notes)
	}
}

func TestProcessWithdrawalErrors(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	group := env.group(t, admin, 5, true)
	other := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	contribution := env.contribute(t, member, group.ID, "100")
	pending, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "60"})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	tests := []struct {
		name    string
		actor   Actor
		groupID string
		txnID   string
		in      ProcessInput
		wantErr error
	}{
		{"bad decision", admin, group.ID, pending.ID, ProcessInput{Decision: "pending"}, ErrInvalidAction},
		{"member is not admin", member, group.ID, pending.ID, ProcessInput{Decision: "completed"}, ErrForbidden},
		{"unknown transaction", admin, group.ID, "missing", ProcessInput{Decision: "completed"}, ErrNotFound},
		{"wrong group", admin, other.ID, pending.ID, ProcessInput{Decision: "completed"}, ErrNotFound},
		{"not a withdrawal", admin, group.ID, contribution.ID, ProcessInput{Decision: "completed"}, ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.ProcessWithdrawal(env.ctx, tt.actor, tt.groupID, tt.txnID, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("processing twice fails and leaves the row unchanged", func(t *testing.T) {
		first, err := env.svc.ProcessWithdrawal(env.ctx, admin, group.ID, pending.ID, ProcessInput{Decision: "completed"})
		if err != nil {
			t.Fatalf("ProcessWithdrawal failed: %v", err)
		}

		_, err = env.svc.ProcessWithdrawal(env.ctx, admin, group.ID, pending.ID, ProcessInput{Decision: "rejected", Remarks: "again"})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("Expected ErrInvalidState, got %v", err)
		}

		stored, err := env.store.GetTransaction(env.ctx, pending.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if stored.Status != first.Status || stored.Remarks != first.Remarks || stored.ProcessedAt != first.ProcessedAt {
			t.Errorf("Transaction changed after second call: %+v", stored)
		}
	})

	t.Run("withdrawal requires membership", func(t *testing.T) {
		outsider := env.user(t, "outsider", models.RoleUser)
		_, err := env.svc.RequestWithdrawal(env.ctx, outsider, group.ID, WithdrawalInput{Amount: "1"})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("withdrawal amount must be positive", func(t *testing.T) {
		_, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "0"})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestWithdrawalUsesPersonalBalance(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	env.contribute(t, admin, group.ID, "500")
	env.contribute(t, member, group.ID, "20")

	// The pool holds 520 but the member only put in 20.
	_, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "21"})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
}

func TestConcurrentProcessWithdrawal(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	env.contribute(t, member, group.ID, "100")
	txn, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "50"})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		decision := "completed"
		if i%2 == 1 {
			decision = "rejected"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.ProcessWithdrawal(env.ctx, admin, group.ID, txn.ID, ProcessInput{Decision: decision})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInvalidState):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("Expected exactly one successful decision, got %d", succeeded)
	}
	if got := len(env.notifications(t, member.UserID)); got != 1 {
		t.Errorf("Expected exactly one decision notification, got %d", got)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	env.contribute(t, member, group.ID, "100")

	const requests = 4
	var pending []*models.Transaction
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txn, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "100"})
			if err != nil {
				t.Errorf("RequestWithdrawal failed: %v", err)
				return
			}
			mu.Lock()
			pending = append(pending, txn)
			mu.Unlock()
		}()
	}
	wg.Wait()

	errs := make(chan error, len(pending))
	for _, txn := range pending {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.svc.ProcessWithdrawal(env.ctx, admin, group.ID, id, ProcessInput{Decision: "completed"})
			errs <- err
		}(txn.ID)
	}
	wg.Wait()
	close(errs)

	approved := 0
	for err := range errs {
		switch {
		case err == nil:
			approved++
		case errors.Is(err, ErrInsufficientBalance):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if approved != 1 {
		t.Errorf("Expected exactly one approval, got %d", approved)
	}
	if got := env.balance(t, group.ID, member.UserID); !got.IsZero() {
		t.Errorf("Expected balance 0, got %s", got)
	}
}

func TestBalanceMatchesLedgerReplay(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	members := []Actor{admin, env.user(t, "m1", models.RoleUser), env.user(t, "m2", models.RoleUser)}
	group := env.group(t, admin, 5, true)
	for _, m := range members[1:] {
		if _, err := env.svc.JoinGroup(env.ctx, m, group.ID, ""); err != nil {
			t.Fatalf("JoinGroup failed: %v", err)
		}
	}

	rng := rand.New(rand.NewSource(42))
	expected := map[string]decimal.Decimal{}
	for i := 0; i < 60; i++ {
		actor := members[rng.Intn(len(members))]
		amount := decimal.NewFromInt(int64(rng.Intn(50) + 1))

		switch rng.Intn(3) {
		case 0, 1:
			env.contribute(t, actor, group.ID, amount.String())
			expected[actor.UserID] = expected[actor.UserID].Add(amount)
		case 2:
			txn, err := env.svc.RequestWithdrawal(env.ctx, actor, group.ID, WithdrawalInput{Amount: amount.String()})
			if errors.Is(err, ErrInsufficientBalance) {
				if !amount.GreaterThan(expected[actor.UserID]) {
					t.Fatalf("Refused withdrawal of %s with expected balance %s", amount, expected[actor.UserID])
				}
				continue
			}
			if err != nil {
				t.Fatalf("RequestWithdrawal failed: %v", err)
			}
			decision := "completed"
			if rng.Intn(2) == 0 {
				decision = "rejected"
			}
			if _, err := env.svc.ProcessWithdrawal(env.ctx, admin, group.ID, txn.ID, ProcessInput{Decision: decision}); err != nil {
				t.Fatalf("ProcessWithdrawal failed: %v", err)
			}
			if decision == "completed" {
				expected[actor.UserID] = expected[actor.UserID].Sub(amount)
			}
		}
	}

	total := decimal.Zero
	for _, m := range members {
		want := expected[m.UserID]
		total = total.Add(want)
		if got := env.balance(t, group.ID, m.UserID); !got.Equal(want) {
			t.Errorf("Balance for %s: got %s, want %s", m.UserID, got, want)
		}
		if want.IsNegative() {
			t.Errorf("Balance for %s went negative: %s", m.UserID, want)
		}
	}
	if got := env.balance(t, group.ID, ""); !got.Equal(total) {
		t.Errorf("Group balance: got %s, want %s", got, total)
	}
}

func TestGetTransactionAccess(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	other := env.user(t, "other", models.RoleUser)
	root := env.user(t, "root", models.RoleAdmin)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if _, err := env.svc.JoinGroup(env.ctx, other, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	txn := env.contribute(t, member, group.ID, "10")

	tests := []struct {
		name    string
		actor   Actor
		wantErr error
	}{
		{"owner", member, nil},
		{"group admin", admin, nil},
		{"system admin", root, nil},
		{"plain member", other, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.GetTransaction(env.ctx, tt.actor, txn.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func storageFilter(groupID string, typ models.TransactionType) storage.TransactionFilter {
	return storage.TransactionFilter{GroupID: groupID, Type: typ}
}
