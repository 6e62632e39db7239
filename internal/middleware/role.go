package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // Role normalisation

	"srq_assessment/internal/domain" // Domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// RequireRole lets a request through only when the caller's stored account is
// active and holds one of roles. The token's role claim is not trusted: the
// account is re-read so demotions and deactivations apply immediately.
func RequireRole(db *gorm.DB, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User
		if err := db.Select("id", "role", "is_active").First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		if _, ok := allowed[user.Role]; !ok || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Set(CtxRole, user.Role) // Role as stored, not as claimed
		c.Next()
	}
}

// AdminOnly is RequireRole restricted to administrators.
func AdminOnly(db *gorm.DB) gin.HandlerFunc {
	return RequireRole(db, domain.RoleAdmin)
}
