package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schemaforge/backend/internal/application/services"
)

type UsageHandler struct {
	svcMgr *services.ServiceManager
}

func NewUsageHandler(svcMgr *services.ServiceManager) *UsageHandler {
	return &UsageHandler{svcMgr: svcMgr}
}

// GetMyUsage handles GET /api/usage/me
func (h *UsageHandler) GetMyUsage(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	used, quota, err := h.svcMgr.Entitlement.Quota(c.Request.Context(), *user)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	events, err := h.svcMgr.Usage.RecentEvents(c.Request.Context(), user.ID, 20)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"plan_id": user.PlanID,
		"used":    used,
		"quota":   quota,
		"events":  events,
	})
}

// GetPlans handles GET /api/plans
func (h *UsageHandler) GetPlans(c *gin.Context) {
	plans, err := h.svcMgr.Entitlement.Plans(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{"plans": plans})
}
