package service

import (
	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/calculator"
	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/savings"
)

// Wire messages. Money travels as decimal strings with two fraction digits;
// timestamps are Unix seconds.

type Empty struct{}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	CreatedAt   int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

type Group struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Description           string `json:"description,omitempty"`
	TargetAmount          string `json:"targetAmount"`
	ContributionAmount    string `json:"contributionAmount"`
	ContributionFrequency string `json:"contributionFrequency"`
	MaxMembers            int    `json:"maxMembers"`
	IsPublic              bool   `json:"isPublic"`
	JoinCode              string `json:"joinCode,omitempty"`
	Status                string `json:"status"`
	CreatorID             string `json:"creatorId"`
	CreatedAt             int64  `json:"createdAt"`
	UpdatedAt             int64  `json:"updatedAt"`
}

type Totals struct {
	Contributions string `json:"contributions"`
	Withdrawals   string `json:"withdrawals"`
	Balance       string `json:"balance"`
}

type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	JoinedAt    int64  `json:"joinedAt"`
}

type Membership struct {
	ID       string `json:"id"`
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
	JoinedAt int64  `json:"joinedAt"`
}

type GroupDetail struct {
	Group              *Group    `json:"group"`
	Totals             *Totals   `json:"totals"`
	UserSavings        string    `json:"userSavings"`
	MemberCount        int       `json:"memberCount"`
	Role               string    `json:"role,omitempty"`
	Members            []*Member `json:"members,omitempty"`
	PendingWithdrawals int       `json:"pendingWithdrawals"`
}

type Transaction struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	GroupID         string `json:"groupId"`
	Amount          string `json:"amount"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	PaymentMethod   string `json:"paymentMethod,omitempty"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
	Description     string `json:"description,omitempty"`
	ApprovedBy      string `json:"approvedBy,omitempty"`
	Remarks         string `json:"remarks,omitempty"`
	CreatedAt       int64  `json:"createdAt"`
	UpdatedAt       int64  `json:"updatedAt"`
	ProcessedAt     int64  `json:"processedAt,omitempty"`
}

type Notification struct {
	ID            string `json:"id"`
	TransactionID string `json:"transactionId,omitempty"`
	Message       string `json:"message"`
	Type          string `json:"type"`
	IsRead        bool   `json:"isRead"`
	EmailStatus   string `json:"emailStatus"`
	CreatedAt     int64  `json:"createdAt"`
}

type CreateGroupRequest struct {
	Name                  string `json:"name"`
	Description           string `json:"description"`
	TargetAmount          string `json:"targetAmount"`
	ContributionAmount    string `json:"contributionAmount"`
	ContributionFrequency string `json:"contributionFrequency"`
	MaxMembers            *int   `json:"maxMembers"`
	IsPublic              *bool  `json:"isPublic"`
}

type UpdateGroupRequest struct {
	GroupID               string  `json:"groupId"`
	Name                  *string `json:"name"`
	Description           *string `json:"description"`
	TargetAmount          *string `json:"targetAmount"`
	ContributionAmount    *string `json:"contributionAmount"`
	ContributionFrequency *string `json:"contributionFrequency"`
	MaxMembers            *int    `json:"maxMembers"`
	IsPublic              *bool   `json:"isPublic"`
	Status                *string `json:"status"`
}

type GroupRequest struct {
	GroupID string `json:"groupId"`
}

type GroupResponse struct {
	Group *Group `json:"group"`
}

type GroupDetailResponse struct {
	Group *GroupDetail `json:"group"`
}

type ListMyGroupsResponse struct {
	Groups []*GroupDetail `json:"groups"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type JoinGroupRequest struct {
	GroupID  string `json:"groupId"`
	JoinCode string `json:"joinCode"`
}

type JoinByCodeRequest struct {
	JoinCode string `json:"joinCode"`
}

type MembershipResponse struct {
	Membership *Membership `json:"membership"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type ContributeRequest struct {
	GroupID         string `json:"groupId"`
	Amount          string `json:"amount"`
	PaymentMethod   string `json:"paymentMethod"`
	ReferenceNumber string `json:"referenceNumber"`
	Description     string `json:"description"`
}

type RequestWithdrawalRequest struct {
	GroupID     string `json:"groupId"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type ProcessWithdrawalRequest struct {
	GroupID       string `json:"groupId"`
	TransactionID string `json:"transactionId"`
	// Decision is "completed" or "rejected".
	Decision string `json:"decision"`
	Remarks  string `json:"remarks"`
}

type TransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	GroupID string `json:"groupId"`
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
	Total        int            `json:"total"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}

type GetTransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

type MemberBalance struct {
	UserID        string `json:"userId"`
	Contributions string `json:"contributions"`
	Withdrawals   string `json:"withdrawals"`
	NetBalance    string `json:"netBalance"`
}

type GroupStatsResponse struct {
	Group       *Group           `json:"group"`
	Totals      *Totals          `json:"totals"`
	Progress    string           `json:"progress"`
	MemberCount int              `json:"memberCount"`
	User        *Totals          `json:"user"`
	Recent      []*Transaction   `json:"recentTransactions"`
	Balances    []*MemberBalance `json:"balances"`
}

type GetUserSummaryRequest struct {
	UserID string `json:"userId"`
}

type GroupSummary struct {
	GroupID   string  `json:"groupId"`
	GroupName string  `json:"groupName"`
	Totals    *Totals `json:"totals"`
}

type UserSummaryResponse struct {
	UserID string          `json:"userId"`
	Totals *Totals         `json:"totals"`
	Groups []*GroupSummary `json:"groups"`
}

type AdminStatsResponse struct {
	TotalGroups        int      `json:"totalGroups"`
	TotalUsers         int      `json:"totalUsers"`
	TotalSavings       string   `json:"totalSavings"`
	PendingWithdrawals int      `json:"pendingWithdrawals"`
	RecentGroups       []*Group `json:"recentGroups"`
}

type ListNotificationsRequest struct {
	UnreadOnly bool `json:"unreadOnly"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

type ListNotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
	Total         int             `json:"total"`
	UnreadCount   int             `json:"unreadCount"`
	Limit         int             `json:"limit"`
	Offset        int             `json:"offset"`
}

type MarkNotificationReadRequest struct {
	NotificationID string `json:"notificationId"`
}

type NotificationResponse struct {
	Notification *Notification `json:"notification"`
}

type MarkAllNotificationsReadResponse struct {
	Count int `json:"count"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toUser(u *models.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

func toGroup(g *models.Group) *Group {
	return &Group{
		ID:                    g.ID,
		Name:                  g.Name,
		Description:           g.Description,
		TargetAmount:          money(g.TargetAmount),
		ContributionAmount:    money(g.ContributionAmount),
		ContributionFrequency: string(g.ContributionFrequency),
		MaxMembers:            g.MaxMembers,
		IsPublic:              g.IsPublic,
		JoinCode:              g.JoinCode,
		Status:                string(g.Status),
		CreatorID:             g.CreatorID,
		CreatedAt:             g.CreatedAt,
		UpdatedAt:             g.UpdatedAt,
	}
}

func toGroups(groups []*models.Group) []*Group {
	out := make([]*Group, len(groups))
	for i, g := range groups {
		out[i] = toGroup(g)
	}
	return out
}

func toTotals(t calculator.Totals) *Totals {
	return &Totals{
		Contributions: money(t.Contributions),
		Withdrawals:   money(t.Withdrawals),
		Balance:       money(t.Balance),
	}
}

func toMembers(members []*savings.Member) []*Member {
	out := make([]*Member, len(members))
	for i, m := range members {
		out[i] = &Member{
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			Email:       m.Email,
			Role:        string(m.Role),
			JoinedAt:    m.JoinedAt,
		}
	}
	return out
}

func toMembership(m *models.Membership) *Membership {
	return &Membership{
		ID:       m.ID,
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Role:     string(m.Role),
		IsActive: m.IsActive,
		JoinedAt: m.JoinedAt,
	}
}

func toGroupDetail(d *savings.GroupDetail) *GroupDetail {
	out := &GroupDetail{
		Group:              toGroup(d.Group),
		Totals:             toTotals(d.Totals),
		UserSavings:        money(d.UserSavings),
		MemberCount:        d.MemberCount,
		Role:               string(d.Role),
		PendingWithdrawals: d.PendingWithdrawals,
	}
	if d.Members != nil {
		out.Members = toMembers(d.Members)
	}
	return out
}

func toTransaction(t *models.Transaction) *Transaction {
	return &Transaction{
		ID:              t.ID,
		UserID:          t.UserID,
		GroupID:         t.GroupID,
		Amount:          money(t.Amount),
		Type:            string(t.Type),
		Status:          string(t.Status),
		PaymentMethod:   t.PaymentMethod,
		ReferenceNumber: t.ReferenceNumber,
		Description:     t.Description,
		ApprovedBy:      t.ApprovedBy,
		Remarks:         t.Remarks,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ProcessedAt:     t.ProcessedAt,
	}
}

func toTransactions(txns []*models.Transaction) []*Transaction {
	out := make([]*Transaction, len(txns))
	for i, t := range txns {
		out[i] = toTransaction(t)
	}
	return out
}

func toNotification(n *models.Notification) *Notification {
	return &Notification{
		ID:            n.ID,
		TransactionID: n.TransactionID,
		Message:       n.Message,
		Type:          string(n.Type),
		IsRead:        n.IsRead,
		EmailStatus:   string(n.EmailStatus),
		CreatedAt:     n.CreatedAt,
	}
}
