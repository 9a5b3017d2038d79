package handler

import (
	"github.com/gin-gonic/gin"

	"acadflow/backend/internal/api/middleware"
	"acadflow/backend/pkg/response"
)

// MustGetEmail extracts the authenticated caller's email from the context.
// Returns false after writing a 401 when the auth middleware did not run.
func MustGetEmail(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.ContextEmail)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetToken extracts the raw bearer token from the context.
func MustGetToken(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.ContextToken)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}
