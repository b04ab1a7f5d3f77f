package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/blueskyapp/social-api/internal/models"
	"github.com/blueskyapp/social-api/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
}

func NewUserRepository(client *mongodb.Client) *UserRepository {
	return &UserRepository{
		client:     client,
		collection: client.Collection("users"),
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(mongo.ErrNoDocuments, ErrUserNotFound)
		}
		return nil, fmt.Errorf("error finding user by id: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(mongo.ErrNoDocuments, ErrUserNotFound)
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}

	return &user, nil
}

// GetByUsername retrieves a user by their username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User

	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(mongo.ErrNoDocuments, ErrUserNotFound)
		}
		return nil, fmt.Errorf("error finding user by username: %w", err)
	}

	return &user, nil
}

// Create inserts a new user document
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.LikedPosts == nil {
		user.LikedPosts = []primitive.ObjectID{}
	}
	if user.SavedPosts == nil {
		user.SavedPosts = []primitive.ObjectID{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, user.Username)
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// UpdateProfile modifies the mutable profile fields of a user
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"full_name":   user.FullName,
			"email":       user.Email,
			"username":    user.Username,
			"bio":         user.Bio,
			"link":        user.Link,
			"profile_img": user.ProfileImg,
			"cover_img":   user.CoverImg,
			"updated_at":  user.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, user.Username)
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	if result.MatchedCount == 0 {
		return WrapNotFound(mongo.ErrNoDocuments, ErrUserNotFound)
	}

	return nil
}

// UpdatePassword replaces the user's stored credential hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	update := bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if result.MatchedCount == 0 {
		return WrapNotFound(mongo.ErrNoDocuments, ErrUserNotFound)
	}
	return nil
}

// Follow records userID following targetID on both documents
func (r *UserRepository) Follow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"following": targetID}},
	); err != nil {
		return fmt.Errorf("error adding to following: %w", err)
	}

	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$addToSet": bson.M{"followers": userID}},
	); err != nil {
		return fmt.Errorf("error adding to followers: %w", err)
	}

	return nil
}

// Unfollow removes userID following targetID from both documents
func (r *UserRepository) Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"following": targetID}},
	); err != nil {
		return fmt.Errorf("error removing from following: %w", err)
	}

	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$pull": bson.M{"followers": userID}},
	); err != nil {
		return fmt.Errorf("error removing from followers: %w", err)
	}

	return nil
}

// SetLikedPost adds or removes a post from the user's liked list
func (r *UserRepository) SetLikedPost(ctx context.Context, userID, postID primitive.ObjectID, liked bool) error {
	update := bson.M{"$pull": bson.M{"liked_posts": postID}}
	if liked {
		update = bson.M{"$addToSet": bson.M{"liked_posts": postID}}
	}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("error updating liked posts: %w", err)
	}
	return nil
}

// SetSavedPost adds or removes a post from the user's saved list
func (r *UserRepository) SetSavedPost(ctx context.Context, userID, postID primitive.ObjectID, saved bool) error {
	update := bson.M{"$pull": bson.M{"saved_posts": postID}}
	if saved {
		update = bson.M{"$addToSet": bson.M{"saved_posts": postID}}
	}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("error updating saved posts: %w", err)
	}
	return nil
}

// Suggested samples users excluding the given IDs (self plus already-followed)
func (r *UserRepository) Suggested(ctx context.Context, exclude []primitive.ObjectID, limit int) ([]*models.User, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$nin": exclude}}}},
		{{Key: "$sample", Value: bson.M{"size": limit}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error sampling suggested users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding suggested users: %w", err)
	}

	return users, nil
}

// SearchByUsername finds users whose username matches the query,
// case-insensitively
func (r *UserRepository) SearchByUsername(ctx context.Context, query string, limit int) ([]*models.User, error) {
	filter := bson.M{
		"username": bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}},
	}

	opts := options.Find().SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error searching users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}

	return users, nil
}

// ProfilesByIDs returns the public profiles for a set of user IDs, keyed by ID
func (r *UserRepository) ProfilesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserProfile, error) {
	profiles := make(map[primitive.ObjectID]models.UserProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("error loading user profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding user profiles: %w", err)
	}

	for _, u := range users {
		profiles[u.ID] = u.ToProfile()
	}

	return profiles, nil
}
