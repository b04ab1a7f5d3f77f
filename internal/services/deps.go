package services

import (
	"context"

	"github.com/blueskyapp/social-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The services depend on narrow store interfaces rather than the concrete
// Mongo repositories so the flows can be exercised against fakes. The
// repositories package provides the production implementations.

// UserStore is the account access the services need.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	Follow(ctx context.Context, userID, targetID primitive.ObjectID) error
	Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) error
	SetLikedPost(ctx context.Context, userID, postID primitive.ObjectID, liked bool) error
	SetSavedPost(ctx context.Context, userID, postID primitive.ObjectID, saved bool) error
	Suggested(ctx context.Context, exclude []primitive.ObjectID, limit int) ([]*models.User, error)
	SearchByUsername(ctx context.Context, query string, limit int) ([]*models.User, error)
	ProfilesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserProfile, error)
}

// AccountStore is the slice of UserStore the reset flow touches: existence
// lookup and credential write-through.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

// PostStore is the post access the post service needs.
type PostStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error
	SetLike(ctx context.Context, postID, userID primitive.ObjectID, liked bool) error
	SetRepost(ctx context.Context, postID, userID primitive.ObjectID, reposted bool) error
	ListAll(ctx context.Context) ([]models.Post, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error)
	ListFeed(ctx context.Context, viewerID primitive.ObjectID, following []primitive.ObjectID) ([]models.Post, error)
}

// NotificationStore is the notification access the services need.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) error
	DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) error
}

// Mailer delivers out-of-band messages (the reset code email).
type Mailer interface {
	Send(to, subject, body string) error
}
