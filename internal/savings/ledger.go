package savings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

// ContributionInput describes a deposit. PaymentMethod is a free-text tag.
type ContributionInput struct {
	Amount          string `validate:"required"`
	PaymentMethod   string `validate:"required,max=50"`
	ReferenceNumber string `validate:"max=100"`
	Description     string `validate:"max=500"`
}

// WithdrawalInput describes a withdrawal request.
type WithdrawalInput struct {
	Amount      string `validate:"required"`
	Description string `validate:"max=500"`
}

// ProcessInput is an admin decision on a pending withdrawal. Decision must be
// "completed" or "rejected".
type ProcessInput struct {
	Decision string
	Remarks  string `validate:"max=500"`
}

// TransactionQuery narrows ListGroupTransactions.
type TransactionQuery struct {
	Type   models.TransactionType
	UserID string
	Page
}

// Contribute records a completed contribution by an active member of an
// active group and notifies the group and system admins.
func (s *Service) Contribute(ctx context.Context, actor Actor, groupID string, in ContributionInput) (*models.Transaction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Group contribution"
	}

	var (
		txn   *models.Transaction
		group *models.Group
		user  *models.User
	)
	err = s.store.WithTx(ctx, func(tx storage.Repos) error {
		var err error
		group, err = tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if !group.IsActive() {
			return fmt.Errorf("%w: group %s is %s", ErrGroupNotActive, groupID, group.Status)
		}
		if _, err := authorize(ctx, tx, actor, groupID, models.MemberRoleMember); err != nil {
			return err
		}
		user, err = tx.GetUserByID(ctx, actor.UserID)
		if err != nil {
			return err
		}

		now := time.Now().Unix()
		txn = &models.Transaction{
			UserID:          actor.UserID,
			GroupID:         groupID,
			Amount:          amount,
			Type:            models.TypeContribution,
			Status:          models.StatusCompleted,
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			ReferenceNumber: strings.TrimSpace(in.ReferenceNumber),
			Description:     description,
			CreatedAt:       now,
			ProcessedAt:     now,
		}
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contribution recorded",
		"transaction_id", txn.ID,
		"group_id", groupID,
		"user_id", actor.UserID,
		"amount", txn.Amount.String(),
	)

	s.notifyAdmins(ctx, group.ID, actor.UserID, txn.ID,
		contributionMessage(user.DisplayName, txn.Amount, group.Name), models.NotifyContribution)

	return txn, nil
}

// RequestWithdrawal records a pending withdrawal. The amount may not exceed
// the requester's own completed net contribution to the group; the balance is
// read in the same unit of work as the insert.
func (s *Service) RequestWithdrawal(ctx context.Context, actor Actor, groupID string, in WithdrawalInput) (*models.Transaction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Withdrawal request"
	}

	var (
		txn   *models.Transaction
		group *models.Group
		user  *models.User
	)
	err = s.store.WithTx(ctx, func(tx storage.Repos) error {
		var err error
		group, err = tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, actor, groupID, models.MemberRoleMember); err != nil {
			return err
		}

		available, err := balance(ctx, tx, groupID, actor.UserID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(available) {
			return fmt.Errorf("%w: requested %s, available %s", ErrInsufficientBalance, amount, available)
		}

		user, err = tx.GetUserByID(ctx, actor.UserID)
		if err != nil {
			return err
		}

		txn = &models.Transaction{
			UserID:      actor.UserID,
			GroupID:     groupID,
			Amount:      amount,
			Type:        models.TypeWithdrawal,
			Status:      models.StatusPending,
			Description: description,
		}
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal requested",
		"transaction_id", txn.ID,
		"group_id", groupID,
		"user_id", actor.UserID,
		"amount", txn.Amount.String(),
	)

	s.notifyAdmins(ctx, group.ID, actor.UserID, txn.ID,
		withdrawalRequestMessage(user.DisplayName, txn.Amount, group.Name), models.NotifyWithdrawalRequest)

	return txn, nil
}

// ProcessWithdrawal approves or rejects a pending withdrawal. The status
// write is guarded on the row still being pending, so of two concurrent
// decisions exactly one succeeds and the other fails with ErrInvalidState.
func (s *Service) ProcessWithdrawal(ctx context.Context, actor Actor, groupID, transactionID string, in ProcessInput) (*models.Transaction, error) {
	decision := models.TransactionStatus(strings.TrimSpace(in.Decision))
	if decision != models.StatusCompleted && decision != models.StatusRejected {
		return nil, fmt.Errorf("%w: decision must be %q or %q", ErrInvalidAction, models.StatusCompleted, models.StatusRejected)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		txn   *models.Transaction
		admin *models.User
	)
	err := s.store.WithTx(ctx, func(tx storage.Repos) error {
		if _, err := tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, actor, groupID, models.MemberRoleAdmin); err != nil {
			return err
		}

		var err error
		txn, err = tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.GroupID != groupID {
			return fmt.Errorf("transaction %s in group %s: %w", transactionID, groupID, ErrNotFound)
		}
		if txn.Type != models.TypeWithdrawal {
			return fmt.Errorf("%w: transaction %s is a %s", ErrInvalidState, transactionID, txn.Type)
		}
		if !txn.IsPending() {
			return fmt.Errorf("%w: transaction %s is already %s", ErrInvalidState, transactionID, txn.Status)
		}

		// Another withdrawal of the same member may have been approved since
		// this one was requested.
		if decision == models.StatusCompleted {
			available, err := balance(ctx, tx, groupID, txn.UserID)
			if err != nil {
				return err
			}
			if txn.Amount.GreaterThan(available) {
				return fmt.Errorf("%w: requested %s, available %s", ErrInsufficientBalance, txn.Amount, available)
			}
		}

		admin, err = tx.GetUserByID(ctx, actor.UserID)
		if err != nil {
			return err
		}

		txn.Status = decision
		txn.ApprovedBy = actor.UserID
		txn.Remarks = strings.TrimSpace(in.Remarks)
		txn.ProcessedAt = time.Now().Unix()

		err = tx.UpdateTransactionStatus(ctx, txn, models.StatusPending)
		if errors.Is(err, storage.ErrStaleWrite) {
			return fmt.Errorf("%w: transaction %s was processed concurrently", ErrInvalidState, transactionID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal processed",
		"transaction_id", txn.ID,
		"group_id", groupID,
		"user_id", actor.UserID,
		"status", txn.Status,
	)

	notifyType := models.NotifyWithdrawalCompleted
	if txn.Status == models.StatusRejected {
		notifyType = models.NotifyWithdrawalRejected
	}
	s.notify(ctx, []string{txn.UserID}, txn.ID, processedMessage(txn, admin.DisplayName), notifyType)

	return txn, nil
}

// ListGroupTransactions returns a page of a group's ledger, newest first,
// plus the total number of matching rows. Visible to active members and
// system admins.
func (s *Service) ListGroupTransactions(ctx context.Context, actor Actor, groupID string, q TransactionQuery) ([]*models.Transaction, int, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, 0, err
	}
	if !actor.IsSystemAdmin() {
		if _, err := authorize(ctx, s.store, actor, groupID, models.MemberRoleMember); err != nil {
			return nil, 0, err
		}
	}
	if q.Type != "" && q.Type != models.TypeContribution && q.Type != models.TypeWithdrawal {
		return nil, 0, fmt.Errorf("%w: type %q", ErrInvalidField, q.Type)
	}

	page := q.Page.Normalize()
	return s.store.ListTransactions(ctx, storage.TransactionFilter{
		GroupID: groupID,
		UserID:  q.UserID,
		Type:    q.Type,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
}

// GetTransaction returns one transaction to its owner, a system admin, or an
// active admin of its group.
func (s *Service) GetTransaction(ctx context.Context, actor Actor, transactionID string) (*models.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID == actor.UserID || actor.IsSystemAdmin() {
		return txn, nil
	}
	if _, err := authorize(ctx, s.store, actor, txn.GroupID, models.MemberRoleAdmin); err != nil {
		return nil, err
	}
	return txn, nil
}
