package savings

import (
	"context"
	"fmt"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Notifications []*models.Notification
	Total         int
	UnreadCount   int
	Limit         int
	Offset        int
}

// ListNotifications returns the actor's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, actor Actor, unreadOnly bool, page Page) (*NotificationPage, error) {
	page = page.Normalize()

	list, total, err := s.store.ListNotifications(ctx, actor.UserID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	return &NotificationPage{
		Notifications: list,
		Total:         total,
		UnreadCount:   unread,
		Limit:         page.Limit,
		Offset:        page.Offset,
	}, nil
}

// MarkNotificationRead marks one of the actor's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, notificationID string) (*models.Notification, error) {
	n, err := s.store.GetNotification(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != actor.UserID {
		return nil, fmt.Errorf("%w: notification %s belongs to another user", ErrForbidden, notificationID)
	}

	if !n.IsRead {
		if err := s.store.MarkNotificationRead(ctx, notificationID); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}

// MarkAllNotificationsRead marks every unread notification of the actor as
// read and returns how many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor Actor) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, actor.UserID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Notifications marked read", "user_id", actor.UserID, "count", n)
	return n, nil
}
