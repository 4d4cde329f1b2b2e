package dto

// CreateApplicantRequest registers an applicant. Missing locations are kept blank and
// reported under the unknown buckets of coverage statistics.
type CreateApplicantRequest struct {
	FullName     string  `json:"fullName" validate:"required,max=200"`
	Municipality string  `json:"municipality" validate:"max=120"`
	Barangay     string  `json:"barangay" validate:"max=120"`
	ProgramID    *string `json:"programId" validate:"omitempty,uuid"`
}
