package models

import (
	"time"
)

// User roles. Only moderator/admin matter to the core (comment removal);
// the rest are carried for the profile surface.
const (
	RoleMember    = "member"
	RoleExpert    = "expert"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Role     string `gorm:"size:20;default:'member';not null" json:"role"`
	IsBot    bool   `gorm:"default:false;not null" json:"is_bot"` // automated agent accounts (article bot)

	// Karma balances. Mutated exclusively by the karma propagation step of a
	// vote transaction, never written by handlers.
	PostKarma    int `gorm:"default:0;not null" json:"post_karma"`
	CommentKarma int `gorm:"default:0;not null" json:"comment_karma"`

	IsActive  bool      `gorm:"default:true;not null" json:"is_active"` // accounts are deactivated, never deleted
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanRemoveComment reports whether the user may soft-delete the given
// comment: its author, or a moderator/admin.
func (u *User) CanRemoveComment(c *Comment) bool {
	if c.UserID != nil && *c.UserID == u.ID {
		return true
	}
	return u.Role == RoleModerator || u.Role == RoleAdmin
}
