package models

import (
	"time"
)

// DeletedBody replaces the content of soft-deleted comments in responses.
const DeletedBody = "[deleted]"

type Comment struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	Cid string `gorm:"uniqueIndex;size:8;not null" json:"cid"`

	// Deleting the post removes its whole comment forest; deleting the
	// author only nulls the reference.
	PostID uint  `gorm:"not null;index" json:"post_id"`
	Post   *Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID *uint `gorm:"index" json:"user_id"`
	User   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`

	// Nil for top-level comments. No delete cascade here: a removed comment
	// is only flagged, so children always keep a valid parent.
	ParentID *uint `gorm:"index" json:"parent_id"`

	Upvotes   int `gorm:"default:0;not null" json:"upvotes"`
	Downvotes int `gorm:"default:0;not null" json:"downvotes"`
	Score     int `gorm:"default:0;not null;index" json:"score"`

	// Soft delete hides content at render time; the row and its place in
	// the tree are permanent.
	IsDeleted bool `gorm:"default:false;not null;index" json:"is_deleted"`

	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
