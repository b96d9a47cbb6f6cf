package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/tradeauth/domain"
)

// PolicyHandlers manages the casbin route policies
type PolicyHandlers struct {
	policySvc domain.PolicyService
	logger    *slog.Logger
}

// NewPolicyHandlers creates new policy handlers
func NewPolicyHandlers(policySvc domain.PolicyService, logger *slog.Logger) *PolicyHandlers {
	return &PolicyHandlers{policySvc: policySvc, logger: logger}
}

type policyReq struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	policies := h.policySvc.GetPolicies()
	out := make([]gin.H, 0, len(policies))
	for _, p := range policies {
		if len(p) < 3 {
			continue
		}
		out = append(out, gin.H{"subject": p[0], "resource": p[1], "action": p[2]})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		bindError(c, err)
		return
	}
	if err := h.policySvc.AddPolicy(r.Role, r.Resource, r.Action); err != nil {
		writeError(c, h.logger, err, "Failed to add policy")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		bindError(c, err)
		return
	}
	if err := h.policySvc.RemovePolicy(r.Role, r.Resource, r.Action); err != nil {
		writeError(c, h.logger, err, "Failed to remove policy")
		return
	}
	c.Status(http.StatusNoContent)
}
