package models

import (
	"time"
)

// Karma log target kinds.
const (
	KarmaTargetPost    = "post"
	KarmaTargetComment = "comment"
)

// KarmaLog records every karma delta applied to a user, one row per vote
// event. The user's balance and the log row are written in the same
// transaction, so summing deltas always reproduces the balance.
type KarmaLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Delta      int       `gorm:"not null" json:"delta"`
	TargetKind string    `gorm:"size:20;not null" json:"target_kind"` // post or comment
	TargetID   uint      `gorm:"not null;index" json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}
