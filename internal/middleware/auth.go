package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/blueskyapp/social-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UserIDKey   = "user_id"
	UsernameKey = "username"

	// AuthCookieName is the cookie browser clients authenticate with when no
	// Authorization header is sent.
	AuthCookieName = "jwt"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// JWTAuth validates the access token from the Authorization header or, for
// browser clients, the jwt cookie, and stows the user's identity in the
// request context.
func JWTAuth(jwtService *utils.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, ok := extractToken(r)
			if !ok {
				respondWithJSON(w, http.StatusUnauthorized, ErrorResponse{
					Error: ErrorDetail{
						Code:    "MISSING_TOKEN",
						Message: "Authorization header or jwt cookie is required",
					},
				})
				return
			}

			claims, err := jwtService.ValidateAccessToken(accessToken)
			if err != nil {
				respondWithJSON(w, http.StatusUnauthorized, ErrorResponse{
					Error: ErrorDetail{
						Code:    "INVALID_TOKEN",
						Message: "Invalid or expired access token",
					},
				})
				return
			}

			userObjectID, err := primitive.ObjectIDFromHex(claims.Subject)
			if err != nil {
				respondWithJSON(w, http.StatusUnauthorized, ErrorResponse{
					Error: ErrorDetail{
						Code:    "INVALID_TOKEN",
						Message: "Invalid user ID in token",
					},
				})
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, userObjectID)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken prefers the Authorization header and falls back to the cookie.
func extractToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}

	cookie, err := r.Cookie(AuthCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
