package services

import (
	"context"
	"fmt"

	"github.com/blueskyapp/social-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	notifications NotificationStore
	users         UserStore
}

func NewNotificationService(notifications NotificationStore, users UserStore) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
	}
}

// List returns a user's notifications with senders populated and marks them
// all as read, mirroring how the client consumes the endpoint.
func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID) ([]models.NotificationView, error) {
	notifications, err := s.notifications.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(notifications))
	for _, n := range notifications {
		ids = append(ids, n.From)
	}

	profiles, err := s.users.ProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load senders: %w", err)
	}

	views := make([]models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, models.NotificationView{
			Notification: n,
			FromUser:     profiles[n.From],
		})
	}

	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return views, nil
}

// DeleteAll removes every notification addressed to the user.
func (s *NotificationService) DeleteAll(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.notifications.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
