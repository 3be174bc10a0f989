package domain

import "time"

// MaxPostLength is the feed post limit in characters.
const MaxPostLength = 280

// Post is a short status update on the team feed.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Author is the public part of a post owner's profile.
type Author struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// FeedItem is a post as seen by one viewer.
type FeedItem struct {
	Post
	Author    Author `json:"author"`
	LikeCount int    `json:"like_count"`
	IsLiked   bool   `json:"is_liked"`
}

// CreatePostInput is the payload of POST /api/posts.
type CreatePostInput struct {
	Content string `json:"content"`
}

// Validate reports every schema violation at once.
func (in *CreatePostInput) Validate() error {
	var v Violations
	v.checkLength("content", in.Content, 1, MaxPostLength,
		"Post cannot be empty", "Post cannot exceed 280 characters")
	return v.Err()
}
