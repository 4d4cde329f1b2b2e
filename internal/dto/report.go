package dto

import (
	"time"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

// ReportRequest captures POST /reports/generate payload.
type ReportRequest struct {
	Type         models.ReportType      `json:"type" validate:"required,oneof=coverage_municipality coverage_barangay training_calendar"`
	Format       models.ReportFormat    `json:"format" validate:"required,oneof=csv pdf"`
	ProgramID    *string                `json:"programId,omitempty" validate:"omitempty,uuid"`
	Municipality *string                `json:"municipality,omitempty"`
	Filters      models.CalendarFilters `json:"filters"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	Error      *string             `json:"error,omitempty"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}
