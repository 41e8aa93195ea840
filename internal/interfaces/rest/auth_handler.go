package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/schemaforge/backend/internal/application/services"
	"github.com/schemaforge/backend/pkg/auth"
	"github.com/schemaforge/backend/pkg/constants"
	"github.com/schemaforge/backend/pkg/errors"
)

type AuthHandler struct {
	svcMgr *services.ServiceManager
}

func NewAuthHandler(svcMgr *services.ServiceManager) *AuthHandler {
	return &AuthHandler{
		svcMgr: svcMgr,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Success   bool             `json:"success"`
	Token     string           `json:"token,omitempty"`
	User      auth.UserSession `json:"user"`
	ExpiresAt string           `json:"expires_at,omitempty"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	if !auth.IsValidEmail(req.Email) {
		RespondError(c, http.StatusBadRequest, "Invalid email format")
		return
	}

	result, err := h.svcMgr.Auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondError(c, errors.GetHTTPStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success:   true,
		Token:     result.Token,
		User:      result.User,
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString, exists := c.Get(constants.ContextKeyToken)
	if !exists {
		RespondError(c, http.StatusUnauthorized, "No token provided")
		return
	}

	if err := h.svcMgr.Auth.Logout(c.Request.Context(), tokenString.(string)); err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{constants.FieldMessage: "Logged out"})
}

// GetMe handles GET /api/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	RespondOK(c, gin.H{"user": user})
}

// ChangePasswordRequest represents change-password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req ChangePasswordRequest
	if !BindJSON(c, &req) {
		return
	}

	if err := h.svcMgr.Auth.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{constants.FieldMessage: "Password changed"})
}
