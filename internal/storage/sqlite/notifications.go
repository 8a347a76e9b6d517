package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

const notificationColumns = `id, recipient_id, transaction_id, message, notification_type, is_read, email_status, created_at`

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	var transactionID sql.NullString
	err := row.Scan(&n.ID, &n.RecipientID, &transactionID, &n.Message, &n.Type, &n.IsRead, &n.EmailStatus, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.TransactionID = transactionID.String
	return n, nil
}

// CreateNotification persists a new notification.
func (r *repos) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}
	if n.EmailStatus == "" {
		n.EmailStatus = models.EmailQueued
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.RecipientID, nullString(n.TransactionID), n.Message, string(n.Type), n.IsRead,
		string(n.EmailStatus), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// GetNotification retrieves a notification by ID.
func (r *repos) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n, err := scanNotification(r.q.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("notification", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListNotifications retrieves a page of a recipient's notifications, newest first.
func (r *repos) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*models.Notification, int, error) {
	where := ` WHERE recipient_id = ?`
	if unreadOnly {
		where += ` AND is_read = 0`
	}

	total, err := r.count(ctx, `SELECT COUNT(*) FROM notifications`+where, recipientID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications`+where+
			` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		recipientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, total, nil
}

// CountUnread returns the number of unread notifications for a recipient.
func (r *repos) CountUnread(ctx context.Context, recipientID string) (int, error) {
	n, err := r.count(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead sets is_read on one notification.
func (r *repos) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("notification", id)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notice of a recipient as read
// and returns how many changed.
func (r *repos) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error) {
	result, err := r.q.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return int(affected), nil
}

// SetEmailStatus records the outcome of email delivery for a notification.
func (r *repos) SetEmailStatus(ctx context.Context, id string, status models.EmailStatus) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE notifications SET email_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set email status: %w", err)
	}
	return nil
}
