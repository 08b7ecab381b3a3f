package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/service"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
	"github.com/arenafit/schedule-api/pkg/response"
)

// SuggestionHandler applies externally generated schedule suggestions.
type SuggestionHandler struct {
	suggestions *service.SuggestionService
}

// NewSuggestionHandler constructs a new SuggestionHandler.
func NewSuggestionHandler(suggestions *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

// Apply godoc
// @Summary Apply a schedule suggestion
// @Description Validates the whole suggestion before any write. Generated weeks land as draft proposals.
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body dto.Suggestion true "Suggestion payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /suggestions/apply [post]
func (h *SuggestionHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var suggestion dto.Suggestion
	if err := c.ShouldBindJSON(&suggestion); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion payload"))
		return
	}
	result, err := h.suggestions.Apply(c.Request.Context(), claims.UserID, suggestion)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
