package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/models"
	"github.com/arenafit/schedule-api/internal/service"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
	"github.com/arenafit/schedule-api/pkg/response"
)

// RosterHandler manages the substitution priority list and shift roster.
type RosterHandler struct {
	rosters *service.RosterService
}

// NewRosterHandler constructs a new RosterHandler.
func NewRosterHandler(rosters *service.RosterService) *RosterHandler {
	return &RosterHandler{rosters: rosters}
}

// PriorityList godoc
// @Summary Get the substitution priority list
// @Tags Rosters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rosters/priority [get]
func (h *RosterHandler) PriorityList(c *gin.Context) {
	list, err := h.rosters.PriorityList(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// SavePriorityList godoc
// @Summary Replace the substitution priority list
// @Tags Rosters
// @Accept json
// @Produce json
// @Param payload body models.PriorityList true "Priority list payload"
// @Success 200 {object} response.Envelope
// @Router /rosters/priority [put]
func (h *RosterHandler) SavePriorityList(c *gin.Context) {
	var list models.PriorityList
	if err := c.ShouldBindJSON(&list); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid priority list payload"))
		return
	}
	saved, err := h.rosters.SavePriorityList(c.Request.Context(), list)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// ShiftRoster godoc
// @Summary Get the shift roster
// @Tags Rosters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rosters/shifts [get]
func (h *RosterHandler) ShiftRoster(c *gin.Context) {
	roster, err := h.rosters.ShiftRoster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// SaveShiftRoster godoc
// @Summary Replace the shift roster
// @Tags Rosters
// @Accept json
// @Produce json
// @Param payload body models.ShiftRoster true "Shift roster payload"
// @Success 200 {object} response.Envelope
// @Router /rosters/shifts [put]
func (h *RosterHandler) SaveShiftRoster(c *gin.Context) {
	var roster models.ShiftRoster
	if err := c.ShouldBindJSON(&roster); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid shift roster payload"))
		return
	}
	saved, err := h.rosters.SaveShiftRoster(c.Request.Context(), roster)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}
