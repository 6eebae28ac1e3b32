package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/utils"
	"github.com/huangang/caseeval/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// AuthRequired accepts "Authorization: Bearer <jwt>".
func AuthRequired() gin.HandlerFunc {
	return authenticate(false)
}

// StreamAuthRequired also takes the token from the "token" query parameter,
// since EventSource clients cannot set headers. Use it on stream routes only.
func StreamAuthRequired() gin.HandlerFunc {
	return authenticate(true)
}

func authenticate(allowQueryToken bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string
		if allowQueryToken {
			tokenString = c.Query("token")
		}
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				response.Unauthorized(c, "invalid authorization header format")
				c.Abort()
				return
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		if v, ok := id.(uint); ok {
			return v
		}
	}
	return 0
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == models.RoleAdmin
}
