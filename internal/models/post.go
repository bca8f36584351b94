package models

import (
	"time"
)

// Post kinds. The kind discriminates which detail table owns the body:
// automated articles carry an ArticleDetail, user submissions a
// SubmissionDetail. One detail row per post, resolved by join, never by
// runtime type inspection.
const (
	PostKindArticle    = "article"
	PostKindSubmission = "submission"
)

type Post struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	Pid string `gorm:"uniqueIndex;size:8;not null" json:"pid"`

	// Author reference is nullable: removing a user nulls it and the post
	// survives with an absent-author marker.
	UserID *uint `gorm:"index" json:"user_id"`
	User   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`

	Kind  string `gorm:"size:20;not null;index" json:"kind"`
	Title string `gorm:"size:500;not null" json:"title"`

	// Denormalized vote aggregates. upvotes/downvotes mirror ledger
	// cardinality per sign; score == upvotes - downvotes after every commit.
	Upvotes   int     `gorm:"default:0;not null" json:"upvotes"`
	Downvotes int     `gorm:"default:0;not null" json:"downvotes"`
	Score     int     `gorm:"default:0;not null;index" json:"score"`
	HotScore  float64 `gorm:"default:0;not null;index" json:"hot_score"`

	// Historical count: includes soft-deleted comments.
	CommentCount int `gorm:"default:0;not null" json:"comment_count"`

	IsActive  bool      `gorm:"default:true;not null;index" json:"is_active"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Article    *ArticleDetail    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"article,omitempty"`
	Submission *SubmissionDetail `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"submission,omitempty"`
}

// ArticleDetail is the detail row for automated articles brought in by the
// ingestion bot. The pipeline that fills it lives outside this service.
type ArticleDetail struct {
	PostID      uint       `gorm:"primaryKey" json:"post_id"`
	URL         string     `gorm:"size:1000;uniqueIndex;not null" json:"url"`
	SourceName  string     `gorm:"size:200;not null" json:"source_name"`
	Summary     string     `gorm:"type:text" json:"summary"` // AI-generated, optional
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SubmissionDetail is the detail row for user submissions: text, link, or
// both. At least one of Content/URL is expected to be set.
type SubmissionDetail struct {
	PostID    uint      `gorm:"primaryKey" json:"post_id"`
	Content   string    `gorm:"type:text" json:"content"`
	URL       string    `gorm:"size:1000" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
