package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/models"
	"github.com/arenafit/schedule-api/internal/service"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
	"github.com/arenafit/schedule-api/pkg/response"
)

// ProposalHandler manages the draft schedule lifecycle over HTTP.
type ProposalHandler struct {
	proposals *service.ProposalService
}

// NewProposalHandler constructs a new ProposalHandler.
func NewProposalHandler(proposals *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals}
}

// List godoc
// @Summary List schedule proposals
// @Tags Proposals
// @Produce json
// @Param status query string false "Filter by status (draft/review/approved/rejected)"
// @Success 200 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	var status *models.ProposalStatus
	if raw := c.Query("status"); raw != "" {
		value := models.ProposalStatus(raw)
		if !value.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown proposal status"))
			return
		}
		status = &value
	}
	proposals, err := h.proposals.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals, nil)
}

// Get godoc
// @Summary Get proposal detail
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	proposal, err := h.proposals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Activate godoc
// @Summary Open a draft proposal
// @Description Seeds a new draft from the recurring entries of the live grid.
// @Tags Proposals
// @Accept json
// @Produce json
// @Param payload body service.ActivateProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Router /proposals [post]
func (h *ProposalHandler) Activate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ActivateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid proposal payload"))
		return
	}
	proposal, err := h.proposals.Activate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// Transition godoc
// @Summary Move a proposal through its lifecycle
// @Description Approving merges the proposed entries into the live grid atomically.
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body object{status=string} true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/status [put]
func (h *ProposalHandler) Transition(c *gin.Context) {
	var payload struct {
		Status models.ProposalStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}
	proposal, err := h.proposals.Transition(c.Request.Context(), c.Param("id"), payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// AddEntry godoc
// @Summary Add an entry to a draft proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body service.ScheduleEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/entries [post]
func (h *ProposalHandler) AddEntry(c *gin.Context) {
	var req service.ScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}
	entry, err := h.proposals.AddEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// RemoveEntry godoc
// @Summary Remove an entry from a draft proposal
// @Tags Proposals
// @Param id path string true "Proposal ID"
// @Param eid path string true "Entry ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/entries/{eid} [delete]
func (h *ProposalHandler) RemoveEntry(c *gin.Context) {
	if err := h.proposals.RemoveEntry(c.Request.Context(), c.Param("id"), c.Param("eid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReassignEntry godoc
// @Summary Reassign teachers on a proposal entry
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param eid path string true "Entry ID"
// @Param payload body object{teacher_ids=[]string} true "New teacher assignment"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/entries/{eid}/teachers [put]
func (h *ProposalHandler) ReassignEntry(c *gin.Context) {
	var payload struct {
		TeacherIDs []string `json:"teacher_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "teacher_ids required"))
		return
	}
	if err := h.proposals.ReassignEntry(c.Request.Context(), c.Param("id"), c.Param("eid"), payload.TeacherIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RefreshAnalysis godoc
// @Summary Re-run conflict analysis for a proposal
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/analysis [post]
func (h *ProposalHandler) RefreshAnalysis(c *gin.Context) {
	snapshot, err := h.proposals.RefreshAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}
