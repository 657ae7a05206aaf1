package auth

import (
	"net/http"
	"strings"

	"paper-board/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userContextKey = "current_user"

// Identify resolves the bearer token into a user and stores it on the
// context. Requests without a valid token continue anonymously; protected
// handlers call RequireUser.
func Identify(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			c.Next()
			return
		}
		claims, err := VerifyToken(secret, tokenString)
		if err != nil {
			c.Next()
			return
		}
		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			c.Next()
			return
		}
		c.Set(userContextKey, &user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequireUser returns the authenticated user or aborts with 401.
func RequireUser(c *gin.Context) *models.User {
	user := CurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return user
}

// RequireRole returns the authenticated user when it has one of the given
// roles, or aborts.
func RequireRole(c *gin.Context, roles ...string) *models.User {
	user := RequireUser(c)
	if user == nil {
		return nil
	}
	for _, role := range roles {
		if user.Role == role {
			return user
		}
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	return nil
}
