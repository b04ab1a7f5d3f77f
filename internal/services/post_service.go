package services

import (
	"context"
	"fmt"
	"time"

	"github.com/blueskyapp/social-api/internal/events"
	"github.com/blueskyapp/social-api/internal/models"
	"github.com/blueskyapp/social-api/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostService struct {
	posts         PostStore
	users         UserStore
	notifications NotificationStore
	publisher     *events.Publisher
}

func NewPostService(posts PostStore, users UserStore, notifications NotificationStore, publisher *events.Publisher) *PostService {
	return &PostService{
		posts:         posts,
		users:         users,
		notifications: notifications,
		publisher:     publisher,
	}
}

// CreatePost creates a post with text, an image URL, or both.
func (s *PostService) CreatePost(ctx context.Context, userID primitive.ObjectID, text, img string) (*models.Post, error) {
	if text == "" && img == "" {
		return nil, ErrEmptyPost
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	post := &models.Post{
		UserID: userID,
		Text:   text,
		Img:    img,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

// DeletePost removes a post. Only the author may delete it.
func (s *PostService) DeletePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if repositories.IsPostNotFound(err) {
			return repositories.ErrPostNotFound
		}
		return fmt.Errorf("failed to load post: %w", err)
	}

	if post.UserID != userID {
		return ErrForbidden
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// Comment appends a comment and returns the updated post.
func (s *PostService) Comment(ctx context.Context, userID, postID primitive.ObjectID, text string) (*models.Post, error) {
	if text == "" {
		return nil, ErrEmptyComment
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		if repositories.IsPostNotFound(err) {
			return nil, repositories.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload post: %w", err)
	}
	return post, nil
}

// LikeToggle likes the post if the user has not liked it yet, otherwise
// removes the like. Returns the updated likes list. A fresh like notifies
// the post's author.
func (s *PostService) LikeToggle(ctx context.Context, userID, postID primitive.ObjectID) ([]primitive.ObjectID, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if repositories.IsPostNotFound(err) {
			return nil, repositories.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	if post.LikedBy(userID) {
		if err := s.posts.SetLike(ctx, postID, userID, false); err != nil {
			return nil, fmt.Errorf("failed to unlike post: %w", err)
		}
		if err := s.users.SetLikedPost(ctx, userID, postID, false); err != nil {
			return nil, fmt.Errorf("failed to update liked posts: %w", err)
		}

		likes := make([]primitive.ObjectID, 0, len(post.Likes))
		for _, id := range post.Likes {
			if id != userID {
				likes = append(likes, id)
			}
		}
		return likes, nil
	}

	if err := s.posts.SetLike(ctx, postID, userID, true); err != nil {
		return nil, fmt.Errorf("failed to like post: %w", err)
	}
	if err := s.users.SetLikedPost(ctx, userID, postID, true); err != nil {
		return nil, fmt.Errorf("failed to update liked posts: %w", err)
	}

	notification := &models.Notification{
		From: userID,
		To:   post.UserID,
		Type: models.NotificationLike,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create like notification: %w", err)
	}
	s.publisher.NotificationCreated(userID.Hex(), post.UserID.Hex(), string(models.NotificationLike))

	return append(post.Likes, userID), nil
}

// RepostToggle reposts the post if the user has not reposted it yet,
// otherwise undoes the repost. Returns the updated reposts list.
func (s *PostService) RepostToggle(ctx context.Context, userID, postID primitive.ObjectID) ([]primitive.ObjectID, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if repositories.IsPostNotFound(err) {
			return nil, repositories.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	if post.RepostedBy(userID) {
		if err := s.posts.SetRepost(ctx, postID, userID, false); err != nil {
			return nil, fmt.Errorf("failed to undo repost: %w", err)
		}

		reposts := make([]primitive.ObjectID, 0, len(post.Reposts))
		for _, id := range post.Reposts {
			if id != userID {
				reposts = append(reposts, id)
			}
		}
		return reposts, nil
	}

	if err := s.posts.SetRepost(ctx, postID, userID, true); err != nil {
		return nil, fmt.Errorf("failed to repost: %w", err)
	}

	return append(post.Reposts, userID), nil
}

// SaveToggle saves the post for the user if not yet saved, otherwise
// unsaves it. Returns true when the post is now saved.
func (s *PostService) SaveToggle(ctx context.Context, userID, postID primitive.ObjectID) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return false, ErrAccountNotFound
		}
		return false, fmt.Errorf("failed to load user: %w", err)
	}

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if repositories.IsPostNotFound(err) {
			return false, repositories.ErrPostNotFound
		}
		return false, fmt.Errorf("failed to load post: %w", err)
	}

	saved := !user.HasSaved(postID)
	if err := s.users.SetSavedPost(ctx, userID, postID, saved); err != nil {
		return false, fmt.Errorf("failed to update saved posts: %w", err)
	}

	return saved, nil
}

// AllPosts returns every post, newest first, with authors populated.
func (s *PostService) AllPosts(ctx context.Context) ([]models.FeedPost, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return s.populate(ctx, posts, nil, nil)
}

// UserPosts returns one author's posts by username.
func (s *PostService) UserPosts(ctx context.Context, username string) ([]models.FeedPost, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	posts, err := s.posts.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return s.populate(ctx, posts, nil, nil)
}

// LikedPosts returns the posts a user has liked.
func (s *PostService) LikedPosts(ctx context.Context, userID primitive.ObjectID) ([]models.FeedPost, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	posts, err := s.posts.ListByIDs(ctx, user.LikedPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked posts: %w", err)
	}
	return s.populate(ctx, posts, nil, nil)
}

// SavedPosts returns the viewer's saved posts, most recently saved first.
func (s *PostService) SavedPosts(ctx context.Context, userID primitive.ObjectID) ([]models.FeedPost, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	posts, err := s.posts.ListByIDs(ctx, user.SavedPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved posts: %w", err)
	}

	// Order by position in the saved list, newest save first.
	position := make(map[primitive.ObjectID]int, len(user.SavedPosts))
	for i, id := range user.SavedPosts {
		position[id] = i
	}
	ordered := make([]models.Post, len(posts))
	copy(ordered, posts)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if position[ordered[j].ID] > position[ordered[i].ID] {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	return s.populate(ctx, ordered, nil, nil)
}

// FollowingFeed returns the viewer's home feed: posts authored or reposted
// by the viewer or anyone they follow, annotated with the reposter the
// viewer knows when the post arrived via a repost.
func (s *PostService) FollowingFeed(ctx context.Context, viewerID primitive.ObjectID) ([]models.FeedPost, error) {
	viewer, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	posts, err := s.posts.ListFeed(ctx, viewerID, viewer.Following)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}

	return s.populate(ctx, posts, &viewerID, viewer.Following)
}

// populate loads the user profiles a feed response embeds. When viewerID is
// set, each post also gets a reposter annotation: the first reposter that is
// the viewer or someone the viewer follows.
func (s *PostService) populate(ctx context.Context, posts []models.Post, viewerID *primitive.ObjectID, following []primitive.ObjectID) ([]models.FeedPost, error) {
	idSet := make(map[primitive.ObjectID]struct{})
	for _, post := range posts {
		idSet[post.UserID] = struct{}{}
		for _, comment := range post.Comments {
			idSet[comment.UserID] = struct{}{}
		}
		for _, reposter := range post.Reposts {
			idSet[reposter] = struct{}{}
		}
	}

	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	profiles, err := s.users.ProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	known := make(map[primitive.ObjectID]struct{}, len(following)+1)
	if viewerID != nil {
		known[*viewerID] = struct{}{}
		for _, id := range following {
			known[id] = struct{}{}
		}
	}

	feed := make([]models.FeedPost, 0, len(posts))
	for _, post := range posts {
		fp := models.FeedPost{
			Post:   post,
			Author: profiles[post.UserID],
		}

		for _, comment := range post.Comments {
			if profile, ok := profiles[comment.UserID]; ok {
				fp.CommentAuthors = append(fp.CommentAuthors, profile)
			}
		}

		if viewerID != nil {
			for _, reposterID := range post.Reposts {
				if _, ok := known[reposterID]; !ok {
					continue
				}
				if profile, ok := profiles[reposterID]; ok {
					fp.Reposter = &profile
				}
				break
			}
		}

		feed = append(feed, fp)
	}

	return feed, nil
}
