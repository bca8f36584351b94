package models

import (
	"time"
)

// Vote is the ledger row: one live vote per (user, post) or (user, comment)
// pair, value +1 or -1. Exactly one of PostID/CommentID is set.
//
// The two composite unique indexes are the serialization point for
// double-submits from one user: Postgres (and SQLite) treat NULLs as
// distinct, so a post vote never collides with a comment vote. An insert
// that hits either index is retried through the update/flip path.
type Vote struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	UserID    uint  `gorm:"not null;index;uniqueIndex:idx_vote_user_post;uniqueIndex:idx_vote_user_comment" json:"user_id"`
	User      *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID    *uint `gorm:"uniqueIndex:idx_vote_user_post" json:"post_id"`
	CommentID *uint `gorm:"uniqueIndex:idx_vote_user_comment" json:"comment_id"`

	Value     int       `gorm:"not null" json:"value"` // +1 or -1
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"` // bumped on flips
}
