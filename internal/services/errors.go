package services

import "errors"

// Errors surfaced to the HTTP layer. Handlers map these to status codes;
// anything else is treated as an internal error and never leaks detail.
var (
	// ErrAccountNotFound is returned when no account exists for an identifier
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned on login failure. It deliberately
	// does not distinguish a missing user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken is returned when the requested username is in use
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrEmailTaken is returned when the requested email is in use
	ErrEmailTaken = errors.New("email is already taken")

	// ErrInvalidEmail is returned when an email fails format validation
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword is returned when a password is under the minimum length
	ErrWeakPassword = errors.New("password must be at least 6 characters long")

	// ErrInvalidOrExpiredCode is returned when a reset code cannot be used.
	// It collapses "never issued", "wrong code" and "expired" into one
	// message so callers cannot probe which emails hold challenges.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

	// ErrDeliveryFailed is returned when the reset code email cannot be sent
	ErrDeliveryFailed = errors.New("failed to send reset code")

	// ErrTooManyRequests is returned when reset issuance is rate limited
	ErrTooManyRequests = errors.New("too many reset requests")

	// ErrForbidden is returned when a user acts on a resource they don't own
	ErrForbidden = errors.New("not authorized to perform this action")

	// ErrSelfFollow is returned when a user tries to follow themselves
	ErrSelfFollow = errors.New("cannot follow or unfollow yourself")

	// ErrEmptyPost is returned when a post has neither text nor image
	ErrEmptyPost = errors.New("post must have text or image")

	// ErrEmptyComment is returned when a comment has no text
	ErrEmptyComment = errors.New("comment text is required")
)
