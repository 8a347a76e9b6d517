package models

// NotificationType tags what ledger event produced a notice.
type NotificationType string

const (
	NotifyContribution        NotificationType = "contribution"
	NotifyWithdrawalRequest   NotificationType = "withdrawal_request"
	NotifyWithdrawalCompleted NotificationType = "withdrawal_completed"
	NotifyWithdrawalRejected  NotificationType = "withdrawal_rejected"
)

// EmailStatus records the outcome of the best-effort email delivery.
type EmailStatus string

const (
	EmailQueued  EmailStatus = "queued"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
	EmailSkipped EmailStatus = "skipped"
)

// Notification is an in-app notice. Only IsRead and EmailStatus ever change
// after creation.
type Notification struct {
	ID            string
	RecipientID   string
	TransactionID string
	Message       string
	Type          NotificationType
	IsRead        bool
	EmailStatus   EmailStatus
	CreatedAt     int64
}
