package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recommendations-backend/pkg/jwt"
)

// AuthMiddleware validates the Bearer token and stores the caller's
// identity in the context. Reads are open; every mutating route goes
// through this.
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := manager.ValidateAccessToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"message":     message,
			"code":        "unauthorized",
			"status_code": http.StatusUnauthorized,
			"details":     nil,
		},
	})
	c.Abort()
}
