package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blueskyapp/social-api/config"
	"github.com/blueskyapp/social-api/internal/events"
	"github.com/blueskyapp/social-api/internal/middleware"
	"github.com/blueskyapp/social-api/internal/models"
	"github.com/blueskyapp/social-api/internal/repositories"
	"github.com/blueskyapp/social-api/internal/services"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// emptyPostStore behaves like a PostRepository over an empty collection:
// every lookup misses with the wrapped not-found error.
type emptyPostStore struct{}

func (emptyPostStore) notFound() error {
	return repositories.WrapNotFound(mongo.ErrNoDocuments, repositories.ErrPostNotFound)
}

func (s emptyPostStore) GetByID(_ context.Context, _ primitive.ObjectID) (*models.Post, error) {
	return nil, s.notFound()
}

func (emptyPostStore) Create(_ context.Context, _ *models.Post) error { return nil }

func (s emptyPostStore) Delete(_ context.Context, _ primitive.ObjectID) error {
	return s.notFound()
}

func (s emptyPostStore) AddComment(_ context.Context, _ primitive.ObjectID, _ models.Comment) error {
	return s.notFound()
}

func (s emptyPostStore) SetLike(_ context.Context, _, _ primitive.ObjectID, _ bool) error {
	return s.notFound()
}

func (s emptyPostStore) SetRepost(_ context.Context, _, _ primitive.ObjectID, _ bool) error {
	return s.notFound()
}

func (emptyPostStore) ListAll(_ context.Context) ([]models.Post, error) {
	return []models.Post{}, nil
}

func (emptyPostStore) ListByUser(_ context.Context, _ primitive.ObjectID) ([]models.Post, error) {
	return []models.Post{}, nil
}

func (emptyPostStore) ListByIDs(_ context.Context, _ []primitive.ObjectID) ([]models.Post, error) {
	return []models.Post{}, nil
}

func (emptyPostStore) ListFeed(_ context.Context, _ primitive.ObjectID, _ []primitive.ObjectID) ([]models.Post, error) {
	return []models.Post{}, nil
}

func newEmptyPostRouter() *mux.Router {
	svc := services.NewPostService(emptyPostStore{}, nil, nil,
		events.NewPublisher(nil, config.KafkaTopics{}))
	handler := NewPostHandler(svc)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/posts/like/{id}", handler.Like).Methods("POST")
	api.HandleFunc("/posts/repost/{id}", handler.Repost).Methods("POST")
	api.HandleFunc("/posts/comment/{id}", handler.Comment).Methods("POST")
	api.HandleFunc("/posts/{id}", handler.Delete).Methods("DELETE")
	return router
}

func authedRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, primitive.NewObjectID())
	return req.WithContext(ctx)
}

func TestPostEndpoints_MissingPostMapsTo404(t *testing.T) {
	t.Parallel()

	router := newEmptyPostRouter()
	missing := primitive.NewObjectID().Hex()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"like", http.MethodPost, "/api/v1/posts/like/" + missing, ""},
		{"repost", http.MethodPost, "/api/v1/posts/repost/" + missing, ""},
		{"comment", http.MethodPost, "/api/v1/posts/comment/" + missing, `{"text":"hi"}`},
		{"delete", http.MethodDelete, "/api/v1/posts/" + missing, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authedRequest(tc.method, tc.path, tc.body))

			require.Equal(t, http.StatusNotFound, rec.Code)
			require.Contains(t, rec.Body.String(), "post not found")
		})
	}
}
