package service

import (
	"context"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const notificationNotFound = "Notification with this ID does not exist."

// NotificationService manages a user's notifications.
type NotificationService struct {
	notifications store.NotificationRepository
}

// NewNotificationService builds a NotificationService.
func NewNotificationService(notifications store.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// Create stores a notification.
func (s *NotificationService) Create(ctx context.Context, n store.Notification) (store.Notification, error) {
	return s.notifications.CreateNotification(ctx, n)
}

// FindAll pages through the user's notifications, newest first.
func (s *NotificationService) FindAll(ctx context.Context, userID int64, page store.Page) (store.PageResult[store.Notification], error) {
	page = page.Normalize()
	list, total, err := s.notifications.ListNotifications(ctx, userID, page)
	if err != nil {
		return store.PageResult[store.Notification]{}, err
	}
	return store.NewPageResult(list, total, page), nil
}

// FindOne returns one of the user's notifications. Notifications addressed
// to someone else read as missing.
func (s *NotificationService) FindOne(ctx context.Context, userID, id int64) (store.Notification, error) {
	n, err := s.notifications.GetNotification(ctx, id)
	if err != nil {
		return store.Notification{}, translate(err, notificationNotFound)
	}
	if n.UserID != nil && *n.UserID != userID {
		return store.Notification{}, translate(store.ErrNotFound, notificationNotFound)
	}
	return n, nil
}

// Remove deletes one of the user's notifications.
func (s *NotificationService) Remove(ctx context.Context, userID, id int64) (Deleted[int64], error) {
	if _, err := s.FindOne(ctx, userID, id); err != nil {
		return Deleted[int64]{}, err
	}
	if err := s.notifications.DeleteNotification(ctx, id); err != nil {
		return Deleted[int64]{}, translate(err, notificationNotFound)
	}
	return Deleted[int64]{ID: id}, nil
}
