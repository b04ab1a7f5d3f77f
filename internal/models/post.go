package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a single post with its embedded comments.
// Collection: posts
type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID   `bson:"user" json:"user"`
	Text      string               `bson:"text,omitempty" json:"text,omitempty"`
	Img       string               `bson:"img,omitempty" json:"img,omitempty"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	Reposts   []primitive.ObjectID `bson:"reposts" json:"reposts"`
	Comments  []Comment            `bson:"comments" json:"comments"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updatedAt"`
}

// Comment is embedded in its parent post, matching the document layout
// of the original data set.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// FeedPost is a post annotated for feed responses: the author and comment
// authors are populated, and Reposter is set when the post appears in a
// viewer's feed because someone they follow reposted it.
type FeedPost struct {
	Post
	Author         UserProfile   `json:"author"`
	CommentAuthors []UserProfile `json:"commentAuthors,omitempty"`
	Reposter       *UserProfile  `json:"reposter,omitempty"`
}

// LikedBy reports whether the given user has liked the post.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	return containsID(p.Likes, userID)
}

// RepostedBy reports whether the given user has reposted the post.
func (p *Post) RepostedBy(userID primitive.ObjectID) bool {
	return containsID(p.Reposts, userID)
}
