package savings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

func contributionMessage(name string, amount decimal.Decimal, group string) string {
	return fmt.Sprintf("%s has made a contribution of $%s to group '%s'.", name, amount.StringFixed(2), group)
}

func withdrawalRequestMessage(name string, amount decimal.Decimal, group string) string {
	return fmt.Sprintf("%s has requested a withdrawal of $%s from group '%s'. Please review.", name, amount.StringFixed(2), group)
}

func processedMessage(txn *models.Transaction, admin string) string {
	verb := "approved"
	if txn.Status == models.StatusRejected {
		verb = "rejected"
	}
	msg := fmt.Sprintf("Your withdrawal request for $%s has been %s by %s.", txn.Amount.StringFixed(2), verb, admin)
	if txn.Status == models.StatusRejected && txn.Remarks != "" {
		msg += " Reason: " + txn.Remarks
	}
	return msg
}

// adminRecipients returns system admins and active group admins, without
// duplicates and without the acting user.
func (s *Service) adminRecipients(ctx context.Context, groupID, actorID string) ([]string, error) {
	systemAdmins, err := s.store.ListSystemAdmins(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListActiveMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{actorID: true}
	var recipients []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			recipients = append(recipients, id)
		}
	}
	for _, u := range systemAdmins {
		add(u.ID)
	}
	for _, m := range members {
		if m.IsAdmin() {
			add(m.UserID)
		}
	}
	return recipients, nil
}

// notifyAdmins fans a ledger event out to the admins of a group. Lookup
// failures are logged; the ledger write has already committed.
func (s *Service) notifyAdmins(ctx context.Context, groupID, actorID, transactionID, message string, typ models.NotificationType) {
	if s.notifier == nil {
		return
	}
	recipients, err := s.adminRecipients(ctx, groupID, actorID)
	if err != nil {
		s.logger.Warn("Failed to resolve notification recipients", "group_id", groupID, "transaction_id", transactionID, "error", err)
		return
	}
	s.notify(ctx, recipients, transactionID, message, typ)
}
