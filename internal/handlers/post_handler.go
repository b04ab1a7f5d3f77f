package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/blueskyapp/social-api/internal/services"
	"github.com/gorilla/mux"
)

// PostHandler handles post and feed HTTP requests
type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

type CreatePostRequest struct {
	Text string `json:"text"`
	Img  string `json:"img"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

// Create godoc
// @Summary Create a post
// @Tags Posts
// @Accept json
// @Produce json
// @Param request body CreatePostRequest true "Post content"
// @Success 201 {object} models.Post
// @Failure 400 {object} map[string]string "Post must have text or image"
// @Router /api/v1/posts/create [post]
// @Security BearerAuth
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	post, err := h.postService.CreatePost(r.Context(), userID, req.Text, req.Img)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, post)
}

// Delete removes the authenticated user's own post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := pathObjectID(mux.Vars(r), "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	if err := h.postService.DeletePost(r.Context(), userID, postID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

// Comment appends a comment to a post.
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := pathObjectID(mux.Vars(r), "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	post, err := h.postService.Comment(r.Context(), userID, postID, req.Text)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, post)
}

// Like toggles a like on a post and returns the updated likes list.
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := pathObjectID(mux.Vars(r), "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	likes, err := h.postService.LikeToggle(r.Context(), userID, postID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, likes)
}

// Repost toggles a repost and returns the updated reposts list.
func (h *PostHandler) Repost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := pathObjectID(mux.Vars(r), "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	reposts, err := h.postService.RepostToggle(r.Context(), userID, postID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, reposts)
}

// Save toggles a post in the viewer's saved list.
func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	postID, err := pathObjectID(mux.Vars(r), "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	saved, err := h.postService.SaveToggle(r.Context(), userID, postID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	message := "Post unsaved successfully"
	if saved {
		message = "Post saved successfully"
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"saved":   saved,
	})
}

// All returns every post, newest first.
func (h *PostHandler) All(w http.ResponseWriter, r *http.Request) {
	feed, err := h.postService.AllPosts(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, feed)
}

// Following returns the viewer's home feed.
func (h *PostHandler) Following(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	feed, err := h.postService.FollowingFeed(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, feed)
}

// UserPosts returns one author's posts by username.
func (h *PostHandler) UserPosts(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	feed, err := h.postService.UserPosts(r.Context(), username)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, feed)
}

// LikedPosts returns the posts a user has liked.
func (h *PostHandler) LikedPosts(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathObjectID(mux.Vars(r), "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	feed, err := h.postService.LikedPosts(r.Context(), targetID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, feed)
}

// SavedPosts returns the viewer's saved posts.
func (h *PostHandler) SavedPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	feed, err := h.postService.SavedPosts(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, feed)
}
