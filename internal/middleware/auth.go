// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/merchstudio/photostudio-backend/internal/utils"
)

// InstanceAuth verifies the signed instance token the dashboard sends with
// every request and stashes the claims plus the raw token in the request
// context. The raw token travels on to the upstream calls made on the
// instance's behalf.
func InstanceAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "authorization header format must be Bearer <token>")
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateInstanceToken(token)
		if err != nil {
			utils.UnauthorizedResponse(c, "invalid or expired instance token")
			c.Abort()
			return
		}

		c.Set("instance_id", claims.InstanceID)
		c.Set("site_id", claims.SiteID)
		c.Set("uid", claims.UserID)
		c.Set("instance_token", token)
		c.Next()
	}
}

