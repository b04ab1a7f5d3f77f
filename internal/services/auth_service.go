package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/blueskyapp/social-api/internal/events"
	"github.com/blueskyapp/social-api/internal/models"
	"github.com/blueskyapp/social-api/internal/repositories"
	"github.com/blueskyapp/social-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthService struct {
	users      UserStore
	jwtService *utils.JWTService
	publisher  *events.Publisher
}

func NewAuthService(users UserStore, jwtService *utils.JWTService, publisher *events.Publisher) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		publisher:  publisher,
	}
}

// Signup validates the registration input, creates the account and returns
// it with a fresh token pair.
func (s *AuthService) Signup(ctx context.Context, fullName, username, email, password string) (*models.User, *models.TokenPair, error) {
	if !emailRegex.MatchString(email) {
		return nil, nil, ErrInvalidEmail
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, nil, ErrUsernameTaken
	} else if !repositories.IsUserNotFound(err) {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !repositories.IsUserNotFound(err) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	if len(password) < 6 {
		return nil, nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:     fullName,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if repositories.IsDuplicateKey(err) {
			// Lost the race against a concurrent signup for the same handle.
			return nil, nil, ErrUsernameTaken
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.publisher.UserSignedUp(user.ID.Hex(), user.Email)

	return user, tokens, nil
}

// Login authenticates by username and returns the user with a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, *models.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. An
// invalid or expired token, or one whose account no longer exists, comes
// back as ErrInvalidCredentials so the client falls back to a full login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *models.TokenPair, error) {
	userID, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Me fetches the authenticated user's own account.
func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    900, // 15 minutes in seconds
	}, nil
}
