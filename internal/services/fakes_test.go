package services

import (
	"context"
	"errors"
	"strings"

	"github.com/blueskyapp/social-api/internal/models"
	"github.com/blueskyapp/social-api/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory store fakes implementing the deps.go interfaces. They keep the
// same semantics as the Mongo repositories (not-found sentinels, toggle
// updates on both sides of a relation) without a database.

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (s *fakeUserStore) add(user *models.User) *models.User {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.LikedPosts == nil {
		user.LikedPosts = []primitive.ObjectID{}
	}
	if user.SavedPosts == nil {
		user.SavedPosts = []primitive.ObjectID{}
	}
	s.users[user.ID] = user
	return user
}

func (s *fakeUserStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrDuplicateKey
		}
	}
	s.add(user)
	return nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, user *models.User) error {
	for _, existing := range s.users {
		if existing.ID != user.ID && (existing.Username == user.Username || existing.Email == user.Email) {
			return repositories.ErrDuplicateKey
		}
	}
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (s *fakeUserStore) Follow(_ context.Context, userID, targetID primitive.ObjectID) error {
	user, ok := s.users[userID]
	target, ok2 := s.users[targetID]
	if !ok || !ok2 {
		return repositories.ErrUserNotFound
	}
	user.Following = appendID(user.Following, targetID)
	target.Followers = appendID(target.Followers, userID)
	return nil
}

func (s *fakeUserStore) Unfollow(_ context.Context, userID, targetID primitive.ObjectID) error {
	user, ok := s.users[userID]
	target, ok2 := s.users[targetID]
	if !ok || !ok2 {
		return repositories.ErrUserNotFound
	}
	user.Following = removeID(user.Following, targetID)
	target.Followers = removeID(target.Followers, userID)
	return nil
}

func (s *fakeUserStore) SetLikedPost(_ context.Context, userID, postID primitive.ObjectID, liked bool) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if liked {
		user.LikedPosts = appendID(user.LikedPosts, postID)
	} else {
		user.LikedPosts = removeID(user.LikedPosts, postID)
	}
	return nil
}

func (s *fakeUserStore) SetSavedPost(_ context.Context, userID, postID primitive.ObjectID, saved bool) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if saved {
		user.SavedPosts = appendID(user.SavedPosts, postID)
	} else {
		user.SavedPosts = removeID(user.SavedPosts, postID)
	}
	return nil
}

func (s *fakeUserStore) Suggested(_ context.Context, exclude []primitive.ObjectID, limit int) ([]*models.User, error) {
	excluded := make(map[primitive.ObjectID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	var out []*models.User
	for _, user := range s.users {
		if _, skip := excluded[user.ID]; skip {
			continue
		}
		out = append(out, user)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeUserStore) SearchByUsername(_ context.Context, query string, limit int) ([]*models.User, error) {
	var out []*models.User
	for _, user := range s.users {
		if strings.Contains(strings.ToLower(user.Username), strings.ToLower(query)) {
			out = append(out, user)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeUserStore) ProfilesByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserProfile, error) {
	profiles := make(map[primitive.ObjectID]models.UserProfile, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			profiles[id] = user.ToProfile()
		}
	}
	return profiles, nil
}

type fakePostStore struct {
	posts []*models.Post
}

func (s *fakePostStore) add(post *models.Post) *models.Post {
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
	s.posts = append(s.posts, post)
	return post
}

func (s *fakePostStore) find(id primitive.ObjectID) *models.Post {
	for _, post := range s.posts {
		if post.ID == id {
			return post
		}
	}
	return nil
}

func (s *fakePostStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	post := s.find(id)
	if post == nil {
		return nil, repositories.ErrPostNotFound
	}
	clone := *post
	return &clone, nil
}

func (s *fakePostStore) Create(_ context.Context, post *models.Post) error {
	s.add(post)
	return nil
}

func (s *fakePostStore) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, post := range s.posts {
		if post.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPostNotFound
}

func (s *fakePostStore) AddComment(_ context.Context, postID primitive.ObjectID, comment models.Comment) error {
	post := s.find(postID)
	if post == nil {
		return repositories.ErrPostNotFound
	}
	post.Comments = append(post.Comments, comment)
	return nil
}

func (s *fakePostStore) SetLike(_ context.Context, postID, userID primitive.ObjectID, liked bool) error {
	post := s.find(postID)
	if post == nil {
		return repositories.ErrPostNotFound
	}
	if liked {
		post.Likes = appendID(post.Likes, userID)
	} else {
		post.Likes = removeID(post.Likes, userID)
	}
	return nil
}

func (s *fakePostStore) SetRepost(_ context.Context, postID, userID primitive.ObjectID, reposted bool) error {
	post := s.find(postID)
	if post == nil {
		return repositories.ErrPostNotFound
	}
	if reposted {
		post.Reposts = appendID(post.Reposts, userID)
	} else {
		post.Reposts = removeID(post.Reposts, userID)
	}
	return nil
}

func (s *fakePostStore) ListAll(_ context.Context) ([]models.Post, error) {
	out := make([]models.Post, 0, len(s.posts))
	for i := len(s.posts) - 1; i >= 0; i-- {
		out = append(out, *s.posts[i])
	}
	return out, nil
}

func (s *fakePostStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	out := []models.Post{}
	for i := len(s.posts) - 1; i >= 0; i-- {
		if s.posts[i].UserID == userID {
			out = append(out, *s.posts[i])
		}
	}
	return out, nil
}

func (s *fakePostStore) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	wanted := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := []models.Post{}
	for i := len(s.posts) - 1; i >= 0; i-- {
		if _, ok := wanted[s.posts[i].ID]; ok {
			out = append(out, *s.posts[i])
		}
	}
	return out, nil
}

func (s *fakePostStore) ListFeed(_ context.Context, viewerID primitive.ObjectID, following []primitive.ObjectID) ([]models.Post, error) {
	scope := make(map[primitive.ObjectID]struct{}, len(following)+1)
	scope[viewerID] = struct{}{}
	for _, id := range following {
		scope[id] = struct{}{}
	}

	out := []models.Post{}
	for i := len(s.posts) - 1; i >= 0; i-- {
		post := s.posts[i]
		if _, ok := scope[post.UserID]; ok {
			out = append(out, *post)
			continue
		}
		for _, reposter := range post.Reposts {
			if _, ok := scope[reposter]; ok {
				out = append(out, *post)
				break
			}
		}
	}
	return out, nil
}

type fakeNotificationStore struct {
	notifications []models.Notification
}

func (s *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *fakeNotificationStore) ListForUser(_ context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	out := []models.Notification{}
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].To == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) MarkAllRead(_ context.Context, userID primitive.ObjectID) error {
	for i := range s.notifications {
		if s.notifications[i].To == userID {
			s.notifications[i].Read = true
		}
	}
	return nil
}

func (s *fakeNotificationStore) DeleteAllForUser(_ context.Context, userID primitive.ObjectID) error {
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.To != userID {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	return nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var errSMTPDown = errors.New("smtp: connection refused")

func appendID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
