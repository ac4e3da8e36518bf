package service

import (
	"context"
	"time"

	"avatio/internal/models"
	"avatio/internal/repository"
)

// ReadInput is the body of a read-state change.
type ReadInput struct {
	Read *bool `json:"read" validate:"required"`
}

// NotificationService serves the caller's own notifications.
type NotificationService struct {
	notifications repository.NotificationRepository

	// Now stamps read times.
	Now func() time.Time
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications, Now: time.Now}
}

// List returns one page of userID's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, page, limit int) (models.Paginated[models.Notification], error) {
	rows, total, err := s.notifications.List(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return models.Paginated[models.Notification]{}, err
	}
	return models.NewPaginated(rows, page, limit, total), nil
}

// UnreadCount returns how many of userID's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

// SetRead marks one notification read or unread. Notifications of other
// users are reported as not found.
func (s *NotificationService) SetRead(ctx context.Context, userID, id uint, read bool) error {
	return s.notifications.SetRead(ctx, id, userID, read, s.Now().UTC())
}

// MarkAllRead marks every unread notification of userID as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID, s.Now().UTC())
}
