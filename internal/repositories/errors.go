package repositories

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Common repository errors
var (
	// ErrNotFound is returned when a document is not found
	ErrNotFound = mongo.ErrNoDocuments

	// ErrDuplicateKey is returned when trying to insert a duplicate document
	ErrDuplicateKey = errors.New("duplicate key error")
)

// Domain-specific "not found" errors. These wrap mongo.ErrNoDocuments to
// provide domain context while keeping errors.Is(err, ErrNotFound) working.
var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrPostNotFound is returned when a post is not found
	ErrPostNotFound = errors.New("post not found")

	// ErrNotificationNotFound is returned when a notification is not found
	ErrNotificationNotFound = errors.New("notification not found")
)

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey checks if an error is a duplicate key error
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsDuplicateKeyError(err) || errors.Is(err, ErrDuplicateKey)
}

// IsUserNotFound checks if an error indicates a user was not found
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsPostNotFound checks if an error indicates a post was not found
func IsPostNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}

// WrapNotFound wraps mongo.ErrNoDocuments with a domain-specific error so
// callers can check either the domain error or the generic one:
//
//	if IsPostNotFound(err) { ... }
//	if IsNotFound(err) { ... }
func WrapNotFound(err error, domainErr error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %w", domainErr, err)
	}
	return err
}
