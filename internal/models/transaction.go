package models

import "github.com/shopspring/decimal"

// TransactionType distinguishes deposits from withdrawals.
type TransactionType string

const (
	TypeContribution TransactionType = "contribution"
	TypeWithdrawal   TransactionType = "withdrawal"
)

// TransactionStatus is the state of a ledger entry.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusRejected  TransactionStatus = "rejected"
	StatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a ledger entry. Contributions are created completed;
// withdrawals are created pending and move exactly once to completed or
// rejected by an admin. Only completed entries count toward balances.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	UserID  string
	GroupID string

	// Amount is always positive; Type gives the direction.
	Amount decimal.Decimal
	Type   TransactionType
	Status TransactionStatus

	// PaymentMethod is a free-text tag (e.g., "mpesa", "cash").
	PaymentMethod   string
	ReferenceNumber string
	Description     string

	// ApprovedBy is the admin who processed a withdrawal.
	ApprovedBy string

	// Remarks is the optional note left by the processing admin.
	Remarks string

	CreatedAt int64
	UpdatedAt int64

	// ProcessedAt is when the entry reached a terminal status (0 while pending).
	ProcessedAt int64
}

// IsPending reports whether the transaction still awaits processing.
func (t *Transaction) IsPending() bool {
	return t.Status == StatusPending
}
