package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/service"
	"github.com/arenafit/schedule-api/pkg/response"
)

// PlanningHandler exposes the schedule analysis endpoint.
type PlanningHandler struct {
	planning *service.PlanningService
}

// NewPlanningHandler constructs a new PlanningHandler.
func NewPlanningHandler(planning *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{planning: planning}
}

// Analyze godoc
// @Summary Analyze the live schedule
// @Description Cross-checks the live grid against capacity profiles and workload balances.
// @Tags Planning
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /planning/analysis [get]
func (h *PlanningHandler) Analyze(c *gin.Context) {
	analysis, err := h.planning.Analyze(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}
