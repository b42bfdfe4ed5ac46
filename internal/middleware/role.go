package middleware

import (
	"net/http"
	"slices"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireRole admits users holding one of roles. It must run after
// BearerAuth, which loads the role from the user record rather than from
// token claims, so a demoted admin loses access with their next request.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewAPIError(models.ErrUnauthorized, "User not authenticated"))
			return
		}

		role := c.GetString(ContextUserRole)
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden, "Insufficient permissions", map[string]interface{}{
				"required_roles": roles,
				"user_role":      role,
				"user_id":        userID,
			}))
			return
		}

		c.Next()
	}
}
