package dto

import "github.com/noah-isme/drrm-training-api/internal/models"

// ProgramRequest is the payload for creating or replacing a training program.
// Exactly one date mode must be supplied: StartDate with EndDate, or SelectedDates.
type ProgramRequest struct {
	ProgramTitle    string             `json:"programTitle" validate:"required,max=200"`
	Type            string             `json:"type" validate:"required,max=100"`
	ProgramVenue    string             `json:"programVenue" validate:"required,max=200"`
	TrainerAssigned models.TrainerList `json:"trainerAssigned" validate:"dive,required"`
	StartDate       *int64             `json:"startDate" validate:"required_with=EndDate"`
	EndDate         *int64             `json:"endDate" validate:"required_with=StartDate"`
	SelectedDates   models.DateValues  `json:"selectedDates"`
}

// ProgramDatesResponse exposes the normalized dates of one program.
type ProgramDatesResponse struct {
	ProgramID string `json:"programId"`
	models.NormalizedDates
}
