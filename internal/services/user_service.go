package services

import (
	"context"
	"fmt"

	"github.com/blueskyapp/social-api/internal/events"
	"github.com/blueskyapp/social-api/internal/models"
	"github.com/blueskyapp/social-api/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	suggestedSampleSize = 10
	suggestedLimit      = 4
	searchLimit         = 10
)

type UserService struct {
	users         UserStore
	notifications NotificationStore
	publisher     *events.Publisher
}

func NewUserService(users UserStore, notifications NotificationStore, publisher *events.Publisher) *UserService {
	return &UserService{
		users:         users,
		notifications: notifications,
		publisher:     publisher,
	}
}

// Profile returns a user's full public document by username.
func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

// FollowToggle follows the target if not yet followed, otherwise unfollows.
// Returns true when the viewer now follows the target. A fresh follow
// notifies the target.
func (s *UserService) FollowToggle(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	if userID == targetID {
		return false, ErrSelfFollow
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return false, ErrAccountNotFound
		}
		return false, fmt.Errorf("failed to load user: %w", err)
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if repositories.IsUserNotFound(err) {
			return false, ErrAccountNotFound
		}
		return false, fmt.Errorf("failed to load target user: %w", err)
	}

	if user.IsFollowing(targetID) {
		if err := s.users.Unfollow(ctx, userID, targetID); err != nil {
			return false, fmt.Errorf("failed to unfollow: %w", err)
		}
		return false, nil
	}

	if err := s.users.Follow(ctx, userID, targetID); err != nil {
		return false, fmt.Errorf("failed to follow: %w", err)
	}

	notification := &models.Notification{
		From: userID,
		To:   targetID,
		Type: models.NotificationFollow,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return true, fmt.Errorf("failed to create follow notification: %w", err)
	}
	s.publisher.NotificationCreated(userID.Hex(), targetID.Hex(), string(models.NotificationFollow))

	return true, nil
}

// Suggested samples accounts the viewer does not already follow.
func (s *UserService) Suggested(ctx context.Context, userID primitive.ObjectID) ([]models.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	exclude := append(append([]primitive.ObjectID{}, user.Following...), userID)

	candidates, err := s.users.Suggested(ctx, exclude, suggestedSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to sample users: %w", err)
	}

	profiles := make([]models.UserProfile, 0, suggestedLimit)
	for _, candidate := range candidates {
		profiles = append(profiles, candidate.ToProfile())
		if len(profiles) == suggestedLimit {
			break
		}
	}

	return profiles, nil
}

// UpdateProfileParams carries the mutable profile fields. Empty strings
// leave the current value in place; a new password requires the current one.
type UpdateProfileParams struct {
	FullName        string
	Email           string
	Username        string
	Bio             string
	Link            string
	ProfileImg      string
	CoverImg        string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile applies profile changes and, optionally, a password change.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, params UpdateProfileParams) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if params.NewPassword != "" || params.CurrentPassword != "" {
		if params.NewPassword == "" || params.CurrentPassword == "" {
			return nil, ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.CurrentPassword)); err != nil {
			return nil, ErrInvalidCredentials
		}
		if len(params.NewPassword) < 6 {
			return nil, ErrWeakPassword
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(params.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
			return nil, fmt.Errorf("failed to update password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if params.FullName != "" {
		user.FullName = params.FullName
	}
	if params.Email != "" {
		if !emailRegex.MatchString(params.Email) {
			return nil, ErrInvalidEmail
		}
		user.Email = params.Email
	}
	if params.Username != "" {
		user.Username = params.Username
	}
	if params.Bio != "" {
		user.Bio = params.Bio
	}
	if params.Link != "" {
		user.Link = params.Link
	}
	if params.ProfileImg != "" {
		user.ProfileImg = params.ProfileImg
	}
	if params.CoverImg != "" {
		user.CoverImg = params.CoverImg
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if repositories.IsDuplicateKey(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// Search finds users by username fragment, case-insensitively.
func (s *UserService) Search(ctx context.Context, query string) ([]models.UserProfile, error) {
	if query == "" {
		return []models.UserProfile{}, nil
	}

	users, err := s.users.SearchByUsername(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	profiles := make([]models.UserProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.ToProfile())
	}

	return profiles, nil
}
