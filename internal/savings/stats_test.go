package savings

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

func TestGetGroupStats(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	outsider := env.user(t, "outsider", models.RoleUser)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	for _, amount := range []string{"100", "50", "25", "10", "5", "60"} {
		env.contribute(t, member, group.ID, amount)
	}
	env.contribute(t, admin, group.ID, "150")
	txn, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "100"})
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if _, err := env.svc.ProcessWithdrawal(env.ctx, admin, group.ID, txn.ID, ProcessInput{Decision: "completed"}); err != nil {
		t.Fatalf("ProcessWithdrawal failed: %v", err)
	}

	stats, err := env.svc.GetGroupStats(env.ctx, member, group.ID)
	if err != nil {
		t.Fatalf("GetGroupStats failed: %v", err)
	}

	// 400 contributed, 100 withdrawn, target 1000.
	if !stats.Totals.Balance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Balance: got %s, want 300", stats.Totals.Balance)
	}
	if !stats.Progress.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Progress: got %s, want 30", stats.Progress)
	}
	if !stats.User.Balance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("User balance: got %s, want 150", stats.User.Balance)
	}
	if stats.MemberCount != 2 {
		t.Errorf("MemberCount: got %d, want 2", stats.MemberCount)
	}
	if len(stats.Recent) != 5 {
		t.Errorf("Expected 5 recent transactions, got %d", len(stats.Recent))
	}
	if len(stats.Balances) != 2 {
		t.Errorf("Expected 2 member balances, got %d", len(stats.Balances))
	}

	if _, err := env.svc.GetGroupStats(env.ctx, outsider, group.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	if _, err := env.svc.GetGroupStats(env.ctx, member, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListGroupTransactions(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	for i := 0; i < 12; i++ {
		env.contribute(t, member, group.ID, "1")
	}
	if _, err := env.svc.RequestWithdrawal(env.ctx, member, group.ID, WithdrawalInput{Amount: "1"}); err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	tests := []struct {
		name      string
		query     TransactionQuery
		wantLen   int
		wantTotal int
	}{
		{"default page", TransactionQuery{}, 10, 13},
		{"second page", TransactionQuery{Page: Page{Limit: 10, Offset: 10}}, 3, 13},
		{"withdrawals only", TransactionQuery{Type: models.TypeWithdrawal}, 1, 1},
		{"limit is capped", TransactionQuery{Page: Page{Limit: 1000}}, 13, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, total, err := env.svc.ListGroupTransactions(env.ctx, member, group.ID, tt.query)
			if err != nil {
				t.Fatalf("ListGroupTransactions failed: %v", err)
			}
			if len(txns) != tt.wantLen || total != tt.wantTotal {
				t.Errorf("got %d rows (total %d), want %d (total %d)", len(txns), total, tt.wantLen, tt.wantTotal)
			}
		})
	}
}

func TestUserSummary(t *testing.T) {
	env := setupTestService(t)
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	root := env.user(t, "root", models.RoleAdmin)
	first := env.group(t, alice, 5, true)
	second := env.group(t, alice, 5, true)
	env.contribute(t, alice, first.ID, "30")
	env.contribute(t, alice, second.ID, "70")

	summary, err := env.svc.GetUserSummary(env.ctx, alice, "")
	if err != nil {
		t.Fatalf("GetUserSummary failed: %v", err)
	}
	if !summary.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Balance: got %s, want 100", summary.Balance)
	}
	if len(summary.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(summary.Groups))
	}
	for _, g := range summary.Groups {
		want := decimal.NewFromInt(30)
		if g.GroupID == second.ID {
			want = decimal.NewFromInt(70)
		}
		if !g.Balance.Equal(want) {
			t.Errorf("Group %s balance: got %s, want %s", g.GroupID, g.Balance, want)
		}
	}

	if _, err := env.svc.GetUserSummary(env.ctx, bob, alice.UserID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	if _, err := env.svc.GetUserSummary(env.ctx, root, alice.UserID); err != nil {
		t.Errorf("Expected system admin to read summary, got %v", err)
	}
}

func TestAdminStats(t *testing.T) {
	env := setupTestService(t)
	alice := env.user(t, "alice", models.RoleUser)
	root := env.user(t, "root", models.RoleAdmin)
	group := env.group(t, alice, 5, true)
	env.contribute(t, alice, group.ID, "80")
	if _, err := env.svc.RequestWithdrawal(env.ctx, alice, group.ID, WithdrawalInput{Amount: "20"}); err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	if _, err := env.svc.GetAdminStats(env.ctx, alice); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}

	stats, err := env.svc.GetAdminStats(env.ctx, root)
	if err != nil {
		t.Fatalf("GetAdminStats failed: %v", err)
	}
	if stats.TotalGroups != 1 || stats.TotalUsers != 2 || stats.PendingWithdrawals != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if !stats.TotalSavings.Equal(decimal.NewFromInt(80)) {
		t.Errorf("TotalSavings: got %s, want 80", stats.TotalSavings)
	}
	if len(stats.RecentGroups) != 1 {
		t.Errorf("Expected 1 recent group, got %d", len(stats.RecentGroups))
	}
}

func TestNotificationInbox(t *testing.T) {
	env := setupTestService(t)
	admin := env.user(t, "admin", models.RoleUser)
	member := env.user(t, "member", models.RoleUser)
	group := env.group(t, admin, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, member, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		env.contribute(t, member, group.ID, "5")
	}

	page, err := env.svc.ListNotifications(env.ctx, admin, false, Page{Limit: 2})
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(page.Notifications) != 2 || page.Total != 3 || page.UnreadCount != 3 {
		t.Fatalf("Unexpected page: len=%d total=%d unread=%d", len(page.Notifications), page.Total, page.UnreadCount)
	}

	first := page.Notifications[0]
	if _, err := env.svc.MarkNotificationRead(env.ctx, member, first.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for another user's notification, got %v", err)
	}
	read, err := env.svc.MarkNotificationRead(env.ctx, admin, first.ID)
	if err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	if !read.IsRead {
		t.Error("Expected notification to be read")
	}
	if _, err := env.svc.MarkNotificationRead(env.ctx, admin, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	unread, err := env.svc.ListNotifications(env.ctx, admin, true, Page{})
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if unread.Total != 2 || unread.Limit != defaultPageLimit {
		t.Errorf("Unexpected unread page: total=%d limit=%d", unread.Total, unread.Limit)
	}

	marked, err := env.svc.MarkAllNotificationsRead(env.ctx, admin)
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead failed: %v", err)
	}
	if marked != 2 {
		t.Errorf("Expected 2 marked, got %d", marked)
	}
}

func TestExportTransactions(t *testing.T) {
	env := setupTestService(t)
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	root := env.user(t, "root", models.RoleAdmin)
	group := env.group(t, alice, 5, true)
	if _, err := env.svc.JoinGroup(env.ctx, bob, group.ID, ""); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	env.contribute(t, alice, group.ID, "10")
	env.contribute(t, bob, group.ID, "20")

	tests := []struct {
		name    string
		actor   Actor
		filter  ExportFilter
		wantLen int
		wantErr error
	}{
		{"own rows by default", bob, ExportFilter{}, 1, nil},
		{"group rows for a member", bob, ExportFilter{GroupID: group.ID}, 2, nil},
		{"another user's rows", bob, ExportFilter{UserID: alice.UserID}, 0, ErrForbidden},
		{"system admin exports everything", root, ExportFilter{}, 2, nil},
		{"bad type", bob, ExportFilter{Type: "refund"}, 0, ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := env.svc.ExportTransactions(env.ctx, tt.actor, tt.filter)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if len(rows) != tt.wantLen {
				t.Errorf("Expected %d rows, got %d", tt.wantLen, len(rows))
			}
			for _, r := range rows {
				if r.GroupName != "Holiday Fund" {
					t.Errorf("GroupName mismatch: got %q", r.GroupName)
				}
			}
		})
	}
}
