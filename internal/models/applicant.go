package models

import "time"

// Applicant is a person who applied to a training program.
type Applicant struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"fullName"`
	Municipality string    `db:"municipality" json:"municipality"`
	Barangay     string    `db:"barangay" json:"barangay"`
	ProgramID    *string   `db:"program_id" json:"programId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ApplicantLocation is the subset of an applicant used for coverage statistics.
type ApplicantLocation struct {
	Municipality string `db:"municipality" json:"municipality"`
	Barangay     string `db:"barangay" json:"barangay"`
}

// ApplicantFilter narrows applicant listings.
type ApplicantFilter struct {
	ProgramID    string
	Municipality string
	Page         int
	PageSize     int
}
