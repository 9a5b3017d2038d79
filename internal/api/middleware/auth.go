package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"acadflow/backend/internal/service"
	"acadflow/backend/pkg/jwt"
	"acadflow/backend/pkg/redis"
	"acadflow/backend/pkg/response"
)

// Context keys injected by JWTAuth.
const (
	ContextEmail    = "email"
	ContextUserType = "user_type"
	ContextRoles    = "roles"
	ContextToken    = "token"
)

// JWTAuth validates the Authorization bearer token and injects the caller's
// identity into the request context. Revoked tokens are rejected through the
// Redis blacklist; a nil client degrades to signature checks only.
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "invalid or expired token")
			c.Abort()
			return
		}
		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "not an access token")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "token revoked")
				c.Abort()
				return
			}
		}

		c.Set(ContextEmail, claims.Email)
		c.Set(ContextUserType, claims.UserType)
		c.Set(ContextRoles, claims.Roles)
		c.Set(ContextToken, parts[1])

		c.Next()
	}
}

// RequireCapability rejects callers whose roles grant none of the listed
// capabilities.
func RequireCapability(capabilities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(ContextRoles)
		if !exists {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}
		roles, ok := v.([]string)
		if !ok {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		for _, cap := range capabilities {
			if service.HasCapability(roles, cap) {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "insufficient permissions")
		c.Abort()
	}
}
