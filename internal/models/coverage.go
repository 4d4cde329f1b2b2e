package models

import "time"

const (
	UnknownMunicipality  = "Unknown Municipality"
	UnknownBarangay      = "Unknown Barangay"
	TierPopulationNotSet = "Population data not set"
)

// CoverageTier labels coverage at or above Threshold percent.
type CoverageTier struct {
	Threshold float64 `json:"threshold" validate:"gte=0"`
	Message   string  `json:"message" validate:"required"`
}

// CoverageConfig holds the tier lists for both administrative levels.
type CoverageConfig struct {
	Municipality []CoverageTier `json:"municipality" validate:"dive"`
	Barangay     []CoverageTier `json:"barangay" validate:"dive"`
}

// BarangayCoverage is the coverage of one barangay within a municipality.
type BarangayCoverage struct {
	Applicants      int             `json:"applicants"`
	TotalPopulation PopulationCount `json:"totalPopulation"`
	CoveragePercent float64         `json:"coveragePercent"`
	Tier            string          `json:"tier"`
}

// CoverageStat is the coverage of one municipality.
type CoverageStat struct {
	TotalApplicants int                         `json:"totalApplicants"`
	TotalPopulation PopulationCount             `json:"totalPopulation"`
	CoveragePercent float64                     `json:"coveragePercent"`
	Tier            string                      `json:"tier"`
	Barangays       map[string]BarangayCoverage `json:"barangays"`
}

// CoverageReport wraps the aggregation with request context.
type CoverageReport struct {
	ProgramID       *string                 `json:"programId,omitempty"`
	TotalApplicants int                     `json:"totalApplicants"`
	Municipalities  map[string]CoverageStat `json:"municipalities"`
	GeneratedAt     time.Time               `json:"generatedAt"`
}

// CoverageFilter scopes coverage to one program when ProgramID is set.
type CoverageFilter struct {
	ProgramID string
}
