package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/dto"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
	"github.com/arenafit/schedule-api/pkg/response"
)

type workloadSummarizer interface {
	Summary(ctx context.Context, asOf *time.Time) ([]dto.WorkloadView, error)
	SummaryForTeacher(ctx context.Context, teacherID string, asOf *time.Time) (*dto.WorkloadView, error)
}

// WorkloadHandler exposes derived workload balances.
type WorkloadHandler struct {
	workloads workloadSummarizer
}

// NewWorkloadHandler constructs a new WorkloadHandler.
func NewWorkloadHandler(workloads workloadSummarizer) *WorkloadHandler {
	return &WorkloadHandler{workloads: workloads}
}

// Summary godoc
// @Summary Workload balance for all active teachers
// @Tags Workload
// @Produce json
// @Param asOf query string false "Evaluate balances as of this instant (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /workload [get]
func (h *WorkloadHandler) Summary(c *gin.Context) {
	asOf, err := asOfParam(c)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "asOf must be RFC 3339"))
		return
	}
	views, err := h.workloads.Summary(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// ForTeacher godoc
// @Summary Workload balance for one teacher
// @Tags Workload
// @Produce json
// @Param id path string true "Teacher ID"
// @Param asOf query string false "Evaluate balance as of this instant (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /workload/{id} [get]
func (h *WorkloadHandler) ForTeacher(c *gin.Context) {
	asOf, err := asOfParam(c)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "asOf must be RFC 3339"))
		return
	}
	view, err := h.workloads.SummaryForTeacher(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
