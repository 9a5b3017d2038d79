package handler

import (
	"github.com/gin-gonic/gin"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/service"
	"acadflow/backend/pkg/response"
)

// AuthHandler sessions and user directory endpoints.
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler builds the AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Refresh
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Logout
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := MustGetToken(c)
	if !ok {
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// Me
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}
	profile, err := h.authSvc.Profile(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, profile)
}

// ListUsers
// GET /api/v1/users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authSvc.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, users)
}
