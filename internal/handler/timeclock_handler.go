package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/models"
	"github.com/arenafit/schedule-api/internal/service"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
	"github.com/arenafit/schedule-api/pkg/response"
)

type timeclock interface {
	CheckIn(ctx context.Context, teacherID string) (*service.CheckInResult, error)
	CheckOut(ctx context.Context, teacherID string) (*models.WorkLog, error)
	RecordManual(ctx context.Context, teacherID string, req service.ManualLogRequest) (*service.CheckInResult, error)
	History(ctx context.Context, teacherID string) ([]models.WorkLog, error)
}

// TimeclockHandler exposes check-in and check-out endpoints.
type TimeclockHandler struct {
	clock timeclock
}

// NewTimeclockHandler constructs a new TimeclockHandler.
func NewTimeclockHandler(clock timeclock) *TimeclockHandler {
	return &TimeclockHandler{clock: clock}
}

// CheckIn godoc
// @Summary Check a teacher in
// @Description Opens a work log. Outside planned classes an unplanned grid entry is created.
// @Tags Timeclock
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers/{id}/check-in [post]
func (h *TimeclockHandler) CheckIn(c *gin.Context) {
	result, err := h.clock.CheckIn(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// CheckOut godoc
// @Summary Check a teacher out
// @Tags Timeclock
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers/{id}/check-out [post]
func (h *TimeclockHandler) CheckOut(c *gin.Context) {
	log, err := h.clock.CheckOut(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// RecordManual godoc
// @Summary Record a past shift manually
// @Description Stores an already closed work log together with its unplanned grid entry.
// @Tags Timeclock
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.ManualLogRequest true "Shift boundaries"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/{id}/work-logs [post]
func (h *TimeclockHandler) RecordManual(c *gin.Context) {
	var req service.ManualLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work log payload"))
		return
	}
	result, err := h.clock.RecordManual(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// History godoc
// @Summary Work log history for a teacher
// @Tags Timeclock
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/work-logs [get]
func (h *TimeclockHandler) History(c *gin.Context) {
	logs, err := h.clock.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
