package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

const transactionColumns = `id, user_id, group_id, amount, transaction_type, status, payment_method,
	reference_number, description, approved_by, remarks, created_at, updated_at, processed_at`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var paymentMethod, reference, description, approvedBy, remarks sql.NullString
	var processedAt sql.NullInt64

	err := row.Scan(&t.ID, &t.UserID, &t.GroupID, &t.Amount, &t.Type, &t.Status, &paymentMethod,
		&reference, &description, &approvedBy, &remarks, &t.CreatedAt, &t.UpdatedAt, &processedAt)
	if err != nil {
		return nil, err
	}

	t.PaymentMethod = paymentMethod.String
	t.ReferenceNumber = reference.String
	t.Description = description.String
	t.ApprovedBy = approvedBy.String
	t.Remarks = remarks.String
	t.ProcessedAt = processedAt.Int64

	return t, nil
}

// CreateTransaction persists a new ledger entry to the database.
func (r *repos) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	// Generate ID if not set
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	if t.UpdatedAt == 0 {
		t.UpdatedAt = t.CreatedAt
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.GroupID, t.Amount, string(t.Type), string(t.Status),
		nullString(t.PaymentMethod), nullString(t.ReferenceNumber), nullString(t.Description),
		nullString(t.ApprovedBy), nullString(t.Remarks), t.CreatedAt, t.UpdatedAt, nullInt64(t.ProcessedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by ID.
func (r *repos) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransactionStatus moves a transaction out of status from. The WHERE
// clause guards the write so a concurrent processor that already changed the
// row makes this call fail with storage.ErrStaleWrite.
func (r *repos) UpdateTransactionStatus(ctx context.Context, t *models.Transaction, from models.TransactionStatus) error {
	t.UpdatedAt = time.Now().Unix()

	result, err := r.q.ExecContext(ctx,
		`UPDATE transactions SET status = ?, approved_by = ?, remarks = ?, processed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(t.Status), nullString(t.ApprovedBy), nullString(t.Remarks), nullInt64(t.ProcessedAt),
		t.UpdatedAt, t.ID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, storage.ErrStaleWrite)
	}

	return nil
}

// ListTransactions retrieves ledger entries matching filter, newest first.
func (r *repos) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]*models.Transaction, int, error) {
	var conds []string
	var args []any
	if filter.GroupID != "" {
		conds = append(conds, "group_id = ?")
		args = append(args, filter.GroupID)
	}
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Type != "" {
		conds = append(conds, "transaction_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	total, err := r.count(ctx, `SELECT COUNT(*) FROM transactions`+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY created_at DESC, rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, total, nil
}
