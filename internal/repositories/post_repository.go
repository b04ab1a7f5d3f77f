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

type PostRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
}

func NewPostRepository(client *mongodb.Client) *PostRepository {
	return &PostRepository{
		client:     client,
		collection: client.Collection("posts"),
	}
}

func (r *PostRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, WrapNotFound(mongo.ErrNoDocuments, ErrPostNotFound)
		}
		return nil, fmt.Errorf("error finding post: %w", err)
	}

	return &post, nil
}

// Create inserts a new post document
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Reposts == nil {
		post.Reposts = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}

	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("error creating post: %w", err)
	}
	return nil
}

// Delete removes a post by ID
func (r *PostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}
	if result.DeletedCount == 0 {
		return WrapNotFound(mongo.ErrNoDocuments, ErrPostNotFound)
	}
	return nil
}

// AddComment appends a comment to the post's embedded comment list
func (r *PostRepository) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) error {
	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		return fmt.Errorf("error adding comment: %w", err)
	}
	if result.MatchedCount == 0 {
		return WrapNotFound(mongo.ErrNoDocuments, ErrPostNotFound)
	}
	return nil
}

// SetLike adds or removes a user from the post's likes
func (r *PostRepository) SetLike(ctx context.Context, postID, userID primitive.ObjectID, liked bool) error {
	update := bson.M{"$pull": bson.M{"likes": userID}}
	if liked {
		update = bson.M{"$addToSet": bson.M{"likes": userID}}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		return fmt.Errorf("error updating likes: %w", err)
	}
	if result.MatchedCount == 0 {
		return WrapNotFound(mongo.ErrNoDocuments, ErrPostNotFound)
	}
	return nil
}

// SetRepost adds or removes a user from the post's reposts
func (r *PostRepository) SetRepost(ctx context.Context, postID, userID primitive.ObjectID, reposted bool) error {
	update := bson.M{"$pull": bson.M{"reposts": userID}}
	if reposted {
		update = bson.M{"$addToSet": bson.M{"reposts": userID}}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		return fmt.Errorf("error updating reposts: %w", err)
	}
	if result.MatchedCount == 0 {
		return WrapNotFound(mongo.ErrNoDocuments, ErrPostNotFound)
	}
	return nil
}

// ListAll returns every post, newest first
func (r *PostRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	return r.list(ctx, bson.M{})
}

// ListByUser returns one author's posts, newest first
func (r *PostRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return r.list(ctx, bson.M{"user": userID})
}

// ListByIDs returns the posts with the given IDs, newest first
func (r *PostRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return r.list(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListFeed returns the posts visible in a viewer's home feed: authored or
// reposted by the viewer or anyone they follow. Newest first.
func (r *PostRepository) ListFeed(ctx context.Context, viewerID primitive.ObjectID, following []primitive.ObjectID) ([]models.Post, error) {
	scope := append(append([]primitive.ObjectID{}, following...), viewerID)

	filter := bson.M{
		"$or": []bson.M{
			{"user": bson.M{"$in": scope}},
			{"reposts": bson.M{"$in": scope}},
		},
	}

	return r.list(ctx, filter)
}

func (r *PostRepository) list(ctx context.Context, filter bson.M) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("error decoding posts: %w", err)
	}

	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}
