package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a Blue Sky account.
// Collection: users
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	FullName     string               `bson:"full_name" json:"fullName"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"password_hash" json:"-"` // Never expose in JSON
	Bio          string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Link         string               `bson:"link,omitempty" json:"link,omitempty"`
	ProfileImg   string               `bson:"profile_img,omitempty" json:"profileImg,omitempty"`
	CoverImg     string               `bson:"cover_img,omitempty" json:"coverImg,omitempty"`
	Followers    []primitive.ObjectID `bson:"followers" json:"followers"`
	Following    []primitive.ObjectID `bson:"following" json:"following"`
	LikedPosts   []primitive.ObjectID `bson:"liked_posts" json:"likedPosts"`
	SavedPosts   []primitive.ObjectID `bson:"saved_posts" json:"savedPosts"`
	CreatedAt    time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updatedAt"`
}

// UserProfile is the public view of a user embedded in feed responses.
type UserProfile struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	FullName   string             `bson:"full_name" json:"fullName"`
	Username   string             `bson:"username" json:"username"`
	ProfileImg string             `bson:"profile_img,omitempty" json:"profileImg,omitempty"`
}

// IsFollowing reports whether the user already follows the given account.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	return containsID(u.Following, id)
}

// HasLiked reports whether the user has liked the given post.
func (u *User) HasLiked(postID primitive.ObjectID) bool {
	return containsID(u.LikedPosts, postID)
}

// HasSaved reports whether the user has saved the given post.
func (u *User) HasSaved(postID primitive.ObjectID) bool {
	return containsID(u.SavedPosts, postID)
}

// ToProfile converts a User to its public profile view.
func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:         u.ID,
		FullName:   u.FullName,
		Username:   u.Username,
		ProfileImg: u.ProfileImg,
	}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
