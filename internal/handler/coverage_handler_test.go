package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

type coverageServiceStub struct {
	filter models.CoverageFilter
}

func (s *coverageServiceStub) Summary(ctx context.Context, filter models.CoverageFilter) (*models.CoverageReport, bool, error) {
	s.filter = filter
	return &models.CoverageReport{
		TotalApplicants: 1,
		Municipalities: map[string]models.CoverageStat{
			"Dagupan": {TotalApplicants: 1, Tier: models.TierPopulationNotSet, Barangays: map[string]models.BarangayCoverage{}},
		},
	}, false, nil
}

func TestCoverageHandlerSummary(t *testing.T) {
	svc := &coverageServiceStub{}
	handler := NewCoverageHandler(svc)
	c, w := newJSONContext(t, http.MethodGet, "/coverage?programId=p1", nil)

	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", svc.filter.ProgramID)

	envelope := decodeEnvelope(t, w)
	assert.Contains(t, string(envelope["data"]), `"totalPopulation":"N/A"`)
	assert.Contains(t, string(envelope["meta"]), `"cache_hit":false`)
}
