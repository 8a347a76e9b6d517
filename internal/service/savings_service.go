package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Iamregulus/Group-savings-app/internal/middleware"
	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/savings"
)

// SavingsService exposes the savings core over Connect. Every handler runs
// behind RequireAuth, so the actor always comes from validated claims.
type SavingsService struct {
	core   *savings.Service
	logger *slog.Logger
}

// NewSavingsService creates a SavingsService backed by core.
func NewSavingsService(core *savings.Service, logger *slog.Logger) *SavingsService {
	return &SavingsService{core: core, logger: logger}
}

func actorFrom(ctx context.Context) savings.Actor {
	return savings.Actor{
		UserID: middleware.GetUserID(ctx),
		Role:   middleware.GetRole(ctx),
	}
}

// CreateGroup creates a group owned by the caller.
func (s *SavingsService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error) {
	s.logger.Info("CreateGroup request received", "name", req.Msg.Name)

	group, err := s.core.CreateGroup(ctx, actorFrom(ctx), savings.CreateGroupInput{
		Name:                  req.Msg.Name,
		Description:           req.Msg.Description,
		TargetAmount:          req.Msg.TargetAmount,
		ContributionAmount:    req.Msg.ContributionAmount,
		ContributionFrequency: req.Msg.ContributionFrequency,
		MaxMembers:            req.Msg.MaxMembers,
		IsPublic:              req.Msg.IsPublic,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "CreateGroup", err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// UpdateGroup applies a partial update. Group admins only.
func (s *SavingsService) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[GroupResponse], error) {
	s.logger.Info("UpdateGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.core.UpdateGroup(ctx, actorFrom(ctx), req.Msg.GroupID, savings.UpdateGroupInput{
		Name:                  req.Msg.Name,
		Description:           req.Msg.Description,
		TargetAmount:          req.Msg.TargetAmount,
		ContributionAmount:    req.Msg.ContributionAmount,
		ContributionFrequency: req.Msg.ContributionFrequency,
		MaxMembers:            req.Msg.MaxMembers,
		IsPublic:              req.Msg.IsPublic,
		Status:                req.Msg.Status,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "UpdateGroup", err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(group)}), nil
}

// GetGroup returns a group with the caller's view of its figures.
func (s *SavingsService) GetGroup(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupDetailResponse], error) {
	detail, err := s.core.GetGroup(ctx, actorFrom(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetGroup", err)
	}
	return connect.NewResponse(&GroupDetailResponse{Group: toGroupDetail(detail)}), nil
}

// ListMyGroups lists the groups the caller is an active member of.
func (s *SavingsService) ListMyGroups(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListMyGroupsResponse], error) {
	details, err := s.core.ListMyGroups(ctx, actorFrom(ctx))
	if err != nil {
		return nil, toConnectError(s.logger, "ListMyGroups", err)
	}

	groups := make([]*GroupDetail, len(details))
	for i, d := range details {
		groups[i] = toGroupDetail(d)
	}
	return connect.NewResponse(&ListMyGroupsResponse{Groups: groups}), nil
}

// ListAvailableGroups lists public active groups the caller never joined.
func (s *SavingsService) ListAvailableGroups(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListGroupsResponse], error) {
	groups, err := s.core.ListAvailableGroups(ctx, actorFrom(ctx))
	if err != nil {
		return nil, toConnectError(s.logger, "ListAvailableGroups", err)
	}
	return connect.NewResponse(&ListGroupsResponse{Groups: toGroups(groups)}), nil
}

func (s *SavingsService) JoinGroup(ctx context.Context, req *connect.Request[JoinGroupRequest]) (*connect.Response[MembershipResponse], error) {
	s.logger.Info("JoinGroup request received", "group_id", req.Msg.GroupID)

	m, err := s.core.JoinGroup(ctx, actorFrom(ctx), req.Msg.GroupID, req.Msg.JoinCode)
	if err != nil {
		return nil, toConnectError(s.logger, "JoinGroup", err)
	}
	return connect.NewResponse(&MembershipResponse{Membership: toMembership(m)}), nil
}

func (s *SavingsService) JoinByCode(ctx context.Context, req *connect.Request[JoinByCodeRequest]) (*connect.Response[MembershipResponse], error) {
	m, err := s.core.JoinByCode(ctx, actorFrom(ctx), req.Msg.JoinCode)
	if err != nil {
		return nil, toConnectError(s.logger, "JoinByCode", err)
	}
	return connect.NewResponse(&MembershipResponse{Membership: toMembership(m)}), nil
}

func (s *SavingsService) LeaveGroup(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[Empty], error) {
	s.logger.Info("LeaveGroup request received", "group_id", req.Msg.GroupID)

	if err := s.core.LeaveGroup(ctx, actorFrom(ctx), req.Msg.GroupID); err != nil {
		return nil, toConnectError(s.logger, "LeaveGroup", err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *SavingsService) ListMembers(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListMembersResponse], error) {
	members, err := s.core.ListMembers(ctx, actorFrom(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "ListMembers", err)
	}
	return connect.NewResponse(&ListMembersResponse{Members: toMembers(members)}), nil
}

// Contribute records a completed contribution.
func (s *SavingsService) Contribute(ctx context.Context, req *connect.Request[ContributeRequest]) (*connect.Response[TransactionResponse], error) {
	s.logger.Info("Contribute request received", "group_id", req.Msg.GroupID, "amount", req.Msg.Amount)

	txn, err := s.core.Contribute(ctx, actorFrom(ctx), req.Msg.GroupID, savings.ContributionInput{
		Amount:          req.Msg.Amount,
		PaymentMethod:   req.Msg.PaymentMethod,
		ReferenceNumber: req.Msg.ReferenceNumber,
		Description:     req.Msg.Description,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "Contribute", err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: toTransaction(txn)}), nil
}

// RequestWithdrawal files a pending withdrawal against the caller's balance.
func (s *SavingsService) RequestWithdrawal(ctx context.Context, req *connect.Request[RequestWithdrawalRequest]) (*connect.Response[TransactionResponse], error) {
	s.logger.Info("RequestWithdrawal request received", "group_id", req.Msg.GroupID, "amount", req.Msg.Amount)

	txn, err := s.core.RequestWithdrawal(ctx, actorFrom(ctx), req.Msg.GroupID, savings.WithdrawalInput{
		Amount:      req.Msg.Amount,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "RequestWithdrawal", err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: toTransaction(txn)}), nil
}

// ProcessWithdrawal approves or rejects a pending withdrawal.
func (s *SavingsService) ProcessWithdrawal(ctx context.Context, req *connect.Request[ProcessWithdrawalRequest]) (*connect.Response[TransactionResponse], error) {
	s.logger.Info("ProcessWithdrawal request received",
		"group_id", req.Msg.GroupID,
		"transaction_id", req.Msg.TransactionID,
		"decision", req.Msg.Decision,
	)

	txn, err := s.core.ProcessWithdrawal(ctx, actorFrom(ctx), req.Msg.GroupID, req.Msg.TransactionID, savings.ProcessInput{
		Decision: req.Msg.Decision,
		Remarks:  req.Msg.Remarks,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "ProcessWithdrawal", err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: toTransaction(txn)}), nil
}

func (s *SavingsService) ListGroupTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	q := savings.TransactionQuery{
		Type:   models.TransactionType(req.Msg.Type),
		UserID: req.Msg.UserID,
		Page:   savings.Page{Limit: req.Msg.Limit, Offset: req.Msg.Offset},
	}
	txns, total, err := s.core.ListGroupTransactions(ctx, actorFrom(ctx), req.Msg.GroupID, q)
	if err != nil {
		return nil, toConnectError(s.logger, "ListGroupTransactions", err)
	}

	page := q.Page.Normalize()
	return connect.NewResponse(&ListTransactionsResponse{
		Transactions: toTransactions(txns),
		Total:        total,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}), nil
}

func (s *SavingsService) GetTransaction(ctx context.Context, req *connect.Request[GetTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	txn, err := s.core.GetTransaction(ctx, actorFrom(ctx), req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetTransaction", err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: toTransaction(txn)}), nil
}

// GetGroupStats returns balances, progress and recent activity of a group.
func (s *SavingsService) GetGroupStats(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupStatsResponse], error) {
	stats, err := s.core.GetGroupStats(ctx, actorFrom(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetGroupStats", err)
	}

	balances := make([]*MemberBalance, len(stats.Balances))
	for i, b := range stats.Balances {
		balances[i] = &MemberBalance{
			UserID:        b.UserID,
			Contributions: money(b.Contributions),
			Withdrawals:   money(b.Withdrawals),
			NetBalance:    money(b.NetBalance),
		}
	}

	return connect.NewResponse(&GroupStatsResponse{
		Group:       toGroup(stats.Group),
		Totals:      toTotals(stats.Totals),
		Progress:    money(stats.Progress),
		MemberCount: stats.MemberCount,
		User:        toTotals(stats.User),
		Recent:      toTransactions(stats.Recent),
		Balances:    balances,
	}), nil
}

func (s *SavingsService) GetUserSummary(ctx context.Context, req *connect.Request[GetUserSummaryRequest]) (*connect.Response[UserSummaryResponse], error) {
	summary, err := s.core.GetUserSummary(ctx, actorFrom(ctx), req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetUserSummary", err)
	}

	groups := make([]*GroupSummary, len(summary.Groups))
	for i, g := range summary.Groups {
		groups[i] = &GroupSummary{GroupID: g.GroupID, GroupName: g.GroupName, Totals: toTotals(g.Totals)}
	}
	return connect.NewResponse(&UserSummaryResponse{
		UserID: summary.UserID,
		Totals: toTotals(summary.Totals),
		Groups: groups,
	}), nil
}

// GetAdminStats is the system admin dashboard.
func (s *SavingsService) GetAdminStats(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[AdminStatsResponse], error) {
	stats, err := s.core.GetAdminStats(ctx, actorFrom(ctx))
	if err != nil {
		return nil, toConnectError(s.logger, "GetAdminStats", err)
	}
	return connect.NewResponse(&AdminStatsResponse{
		TotalGroups:        stats.TotalGroups,
		TotalUsers:         stats.TotalUsers,
		TotalSavings:       money(stats.TotalSavings),
		PendingWithdrawals: stats.PendingWithdrawals,
		RecentGroups:       toGroups(stats.RecentGroups),
	}), nil
}

func (s *SavingsService) ListNotifications(ctx context.Context, req *connect.Request[ListNotificationsRequest]) (*connect.Response[ListNotificationsResponse], error) {
	page, err := s.core.ListNotifications(ctx, actorFrom(ctx), req.Msg.UnreadOnly, savings.Page{
		Limit:  req.Msg.Limit,
		Offset: req.Msg.Offset,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "ListNotifications", err)
	}

	list := make([]*Notification, len(page.Notifications))
	for i, n := range page.Notifications {
		list[i] = toNotification(n)
	}
	return connect.NewResponse(&ListNotificationsResponse{
		Notifications: list,
		Total:         page.Total,
		UnreadCount:   page.UnreadCount,
		Limit:         page.Limit,
		Offset:        page.Offset,
	}), nil
}

func (s *SavingsService) MarkNotificationRead(ctx context.Context, req *connect.Request[MarkNotificationReadRequest]) (*connect.Response[NotificationResponse], error) {
	n, err := s.core.MarkNotificationRead(ctx, actorFrom(ctx), req.Msg.NotificationID)
	if err != nil {
		return nil, toConnectError(s.logger, "MarkNotificationRead", err)
	}
	return connect.NewResponse(&NotificationResponse{Notification: toNotification(n)}), nil
}

func (s *SavingsService) MarkAllNotificationsRead(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[MarkAllNotificationsReadResponse], error) {
	count, err := s.core.MarkAllNotificationsRead(ctx, actorFrom(ctx))
	if err != nil {
		return nil, toConnectError(s.logger, "MarkAllNotificationsRead", err)
	}
	return connect.NewResponse(&MarkAllNotificationsReadResponse{Count: count}), nil
}
