package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schemaforge/backend/internal/application/services"
	"github.com/schemaforge/backend/pkg/constants"
)

type UserHandler struct {
	svcMgr *services.ServiceManager
}

func NewUserHandler(svcMgr *services.ServiceManager) *UserHandler {
	return &UserHandler{svcMgr: svcMgr}
}

// Register handles POST /api/auth/register (admin only)
func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !BindJSON(c, &req) {
		return
	}

	user, err := h.svcMgr.Users.Register(c.Request.Context(), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "User created",
		"user":                 user,
	})
}

// GetUsers handles GET /api/auth/users (admin only)
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.svcMgr.Users.GetUsers(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{"users": users})
}

// ChangePlanRequest represents plan-change request body
type ChangePlanRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// ChangePlan handles PUT /api/auth/users/:id/plan (admin only)
func (h *UserHandler) ChangePlan(c *gin.Context) {
	userID := c.Param("id")

	var req ChangePlanRequest
	if !BindJSON(c, &req) {
		return
	}

	if err := h.svcMgr.Users.ChangePlan(c.Request.Context(), userID, req.PlanID); err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{constants.FieldMessage: "Plan updated"})
}
