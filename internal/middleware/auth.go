package middleware

import (
	"net/http"

	"alterearth/internal/db"
	"alterearth/internal/models"
	"alterearth/internal/utils"

	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// LoadUser resolves the identity injected by the upstream gateway
// (X-User-ID). Authentication itself happens before requests reach this
// service; here the header is trusted and only resolved to a live account.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := utils.StringToInt(c.GetHeader("X-User-ID")); id > 0 {
			var user models.User
			if err := db.DB.First(&user, id).Error; err == nil && user.IsActive {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}

// AuthRequired rejects requests without a resolved user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the resolved user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		return v.(*models.User)
	}
	return nil
}
