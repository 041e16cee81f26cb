package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PermissionAll grants every guarded action.
const PermissionAll = "*"

// RequirePermission rejects callers whose token does not carry the named
// permission. The auth middleware must run first on the chain.
func RequirePermission(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range c.GetStringSlice("permissions") {
			if p == action || p == PermissionAll {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "permission denied"})
	}
}
