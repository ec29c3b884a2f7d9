package model

import "time"

// Content is a post.
//
// Username is copied from the author's session when the post is created and is
// never rewritten afterwards. UserID is what delete authorization checks.
type Content struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
