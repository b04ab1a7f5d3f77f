package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/blueskyapp/social-api/internal/models"
	"github.com/blueskyapp/social-api/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
}

func NewNotificationRepository(client *mongodb.Client) *NotificationRepository {
	return &NotificationRepository{
		client:     client,
		collection: client.Collection("notifications"),
	}
}

// Create inserts a new notification document
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// ListForUser returns a user's notifications, newest first
func (r *NotificationRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"to": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("error decoding notifications: %w", err)
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkAllRead flags every notification for the user as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"to": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("error marking notifications read: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every notification addressed to the user
func (r *NotificationRepository) DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"to": userID}); err != nil {
		return fmt.Errorf("error deleting notifications: %w", err)
	}
	return nil
}
