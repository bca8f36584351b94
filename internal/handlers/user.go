package handlers

import (
	"errors"
	"net/http"

	"alterearth/internal/db"
	"alterearth/internal/middleware"
	"alterearth/internal/models"
	"alterearth/internal/services"
	"alterearth/internal/utils"

	"github.com/gin-gonic/gin"

	"gorm.io/gorm"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile handles GET /users/:id — public profile with karma balances.
func (h *UserHandler) Profile(c *gin.Context) {
	var user models.User
	if err := db.DB.First(&user, utils.StringToInt(c.Param("id"))).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"role":          user.Role,
		"is_bot":        user.IsBot,
		"post_karma":    user.PostKarma,
		"comment_karma": user.CommentKarma,
		"created_at":    user.CreatedAt,
	})
}

// KarmaLogs handles GET /me/karma — the caller's recent karma history.
func (h *UserHandler) KarmaLogs(c *gin.Context) {
	user := middleware.CurrentUser(c)

	logs, err := services.KarmaHistory(user.ID, utils.StringToInt(c.Query("limit")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
