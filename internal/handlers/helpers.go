package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blueskyapp/social-api/internal/middleware"
	"github.com/blueskyapp/social-api/internal/repositories"
	"github.com/blueskyapp/social-api/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes an error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors onto HTTP statuses. Unknown
// errors become a generic 500 so internals never leak to the client.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidOrExpiredCode),
		errors.Is(err, services.ErrSelfFollow),
		errors.Is(err, services.ErrEmptyPost),
		errors.Is(err, services.ErrEmptyComment):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrForbidden):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrAccountNotFound),
		repositories.IsUserNotFound(err),
		repositories.IsPostNotFound(err),
		repositories.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrTooManyRequests):
		respondWithError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, services.ErrDeliveryFailed):
		respondWithError(w, http.StatusBadGateway, "failed to send email")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// currentUserID returns the authenticated user's ID stowed by the JWT
// middleware.
func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	id, ok := r.Context().Value(middleware.UserIDKey).(primitive.ObjectID)
	return id, ok
}

// pathObjectID parses a hex ObjectID from a mux path variable.
func pathObjectID(vars map[string]string, key string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(vars[key])
}
