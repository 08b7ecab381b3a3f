package dto

import (
	"time"

	"github.com/arenafit/schedule-api/internal/models"
)

// ReportRequest captures POST /reports/generate payload.
type ReportRequest struct {
	Type   models.ReportType   `json:"type" validate:"required,oneof=workload schedule"`
	Format models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	AsOf   *time.Time          `json:"asOf,omitempty"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ReportStatus `json:"status"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
