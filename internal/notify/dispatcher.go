// Package notify fans ledger events out to in-app notifications and
// best-effort email.
//
// Notify persists one notification per recipient and queues the email on a
// bounded channel. Run drains the queue in the background, so email provider
// latency never reaches the request path. Delivery is attempted once; the
// outcome is recorded on the notification's email status.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

var (
	notificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "savings_notifications_created_total",
		Help: "In-app notifications persisted, by notification type.",
	}, []string{"type"})

	emailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "savings_email_deliveries_total",
		Help: "Email delivery attempts, by outcome.",
	}, []string{"status"})
)

// Store is the persistence the dispatcher needs.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	SetEmailStatus(ctx context.Context, id string, status models.EmailStatus) error
}

type delivery struct {
	notificationID string
	email          Email
}

// Dispatcher implements the savings notifier.
type Dispatcher struct {
	store   Store
	sender  Sender
	queue   chan delivery
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil sender disables email and marks
// every notification skipped.
func NewDispatcher(store Store, sender Sender, queueSize int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:   store,
		sender:  sender,
		queue:   make(chan delivery, queueSize),
		timeout: timeout,
		logger:  logger,
	}
}

// Notify persists a notification for each recipient and queues its email.
// Failures are logged and never returned.
func (d *Dispatcher) Notify(ctx context.Context, recipientIDs []string, transactionID, message string, typ models.NotificationType) {
	users, err := d.store.GetUsersByIDs(ctx, recipientIDs)
	if err != nil {
		d.logger.Warn("Failed to load notification recipients", "transaction_id", transactionID, "error", err)
		return
	}

	for _, id := range recipientIDs {
		user, ok := users[id]
		if !ok {
			continue
		}

		n := &models.Notification{
			RecipientID:   id,
			TransactionID: transactionID,
			Message:       message,
			Type:          typ,
			EmailStatus:   models.EmailQueued,
		}
		if d.sender == nil || user.Email == "" {
			n.EmailStatus = models.EmailSkipped
		}

		if err := d.store.CreateNotification(ctx, n); err != nil {
			d.logger.Warn("Failed to create notification",
				"user_id", id,
				"transaction_id", transactionID,
				"error", err,
			)
			continue
		}
		notificationsCreated.WithLabelValues(string(typ)).Inc()

		if n.EmailStatus == models.EmailSkipped {
			continue
		}
		d.enqueue(ctx, delivery{
			notificationID: n.ID,
			email: Email{
				To:      user.Email,
				Subject: subject(typ),
				Body:    emailBody(user.DisplayName, message),
			},
		})
	}
}

// enqueue never blocks; a full queue drops the email.
func (d *Dispatcher) enqueue(ctx context.Context, dl delivery) {
	select {
	case d.queue <- dl:
	default:
		d.logger.Warn("Email queue full, dropping email", "notification_id", dl.notificationID)
		d.record(ctx, dl.notificationID, models.EmailFailed)
	}
}

// Run delivers queued emails until ctx is cancelled. Emails still queued at
// that point are marked failed so no notification stays queued forever.
// Cancel ctx only after the last Notify call has returned.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			dropped := d.abandon(ctx)
			d.logger.Info("Notification dispatcher stopped", "dropped", dropped)
			return ctx.Err()
		case dl := <-d.queue:
			if ctx.Err() != nil {
				d.record(ctx, dl.notificationID, models.EmailFailed)
				continue
			}
			d.deliver(ctx, dl)
		}
	}
}

// abandon marks every queued email failed without sending it.
func (d *Dispatcher) abandon(ctx context.Context) int {
	n := 0
	for {
		select {
		case dl := <-d.queue:
			d.record(ctx, dl.notificationID, models.EmailFailed)
			n++
		default:
			return n
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, dl delivery) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	err := d.sender.Send(sendCtx, dl.email)
	cancel()

	status := models.EmailSent
	if err != nil {
		status = models.EmailFailed
		d.logger.Warn("Failed to send email notification",
			"notification_id", dl.notificationID,
			"to", dl.email.To,
			"error", err,
		)
	}
	d.record(ctx, dl.notificationID, status)
}

func (d *Dispatcher) record(ctx context.Context, id string, status models.EmailStatus) {
	emailDeliveries.WithLabelValues(string(status)).Inc()
	if err := d.store.SetEmailStatus(context.WithoutCancel(ctx), id, status); err != nil {
		d.logger.Warn("Failed to record email status", "notification_id", id, "status", status, "error", err)
	}
}

func subject(typ models.NotificationType) string {
	switch typ {
	case models.NotifyContribution:
		return "New Contribution"
	case models.NotifyWithdrawalRequest:
		return "New Withdrawal Request"
	case models.NotifyWithdrawalCompleted:
		return "Withdrawal Request Approved"
	case models.NotifyWithdrawalRejected:
		return "Withdrawal Request Rejected"
	default:
		return "Group Savings Notification"
	}
}

func emailBody(name, message string) string {
	return "Hello " + name + ",\n\n" +
		message + "\n\n" +
		"Please log in to the platform for more details.\n\n" +
		"Regards,\nGroup Savings App Team\n"
}
