package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lineup-social/backend/internal/models"
	"gorm.io/gorm"
)

// RequireAdmin ensures the request is authenticated and the user is an admin.
// It expects "user_id" to be set by the auth middleware earlier in the chain.
func RequireAdmin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		var user models.User
		if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			c.Abort()
			return
		}

		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin_access_required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
