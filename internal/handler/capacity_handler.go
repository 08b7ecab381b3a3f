package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/service"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
	"github.com/arenafit/schedule-api/pkg/response"
)

// CapacityHandler manages versioned capacity profiles per teacher.
type CapacityHandler struct {
	capacity *service.CapacityService
}

// NewCapacityHandler constructs a new CapacityHandler.
func NewCapacityHandler(capacity *service.CapacityService) *CapacityHandler {
	return &CapacityHandler{capacity: capacity}
}

// List godoc
// @Summary List capacity profile versions
// @Tags Capacity
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/capacity [get]
func (h *CapacityHandler) List(c *gin.Context) {
	profiles, err := h.capacity.ListForTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, nil)
}

// Current godoc
// @Summary Get the current capacity profile
// @Tags Capacity
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/capacity/current [get]
func (h *CapacityHandler) Current(c *gin.Context) {
	profile, err := h.capacity.Current(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Create godoc
// @Summary Create a capacity profile version
// @Tags Capacity
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.CreateCapacityProfileRequest true "Profile payload"
// @Success 201 {object} response.Envelope
// @Router /teachers/{id}/capacity [post]
func (h *CapacityHandler) Create(c *gin.Context) {
	var req service.CreateCapacityProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid capacity payload"))
		return
	}
	profile, err := h.capacity.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// SetCurrent godoc
// @Summary Promote a profile version to current
// @Description Demotes the previous current version so exactly one stays active.
// @Tags Capacity
// @Produce json
// @Param id path string true "Teacher ID"
// @Param pid path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/capacity/{pid}/current [put]
func (h *CapacityHandler) SetCurrent(c *gin.Context) {
	profile, err := h.capacity.SetCurrent(c.Request.Context(), c.Param("id"), c.Param("pid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
