package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

type applicantLocator interface {
	Locations(ctx context.Context, programID string) ([]models.ApplicantLocation, error)
}

type coverageSettings interface {
	PopulationReference(ctx context.Context) (models.PopulationReference, error)
	CoverageConfig(ctx context.Context) (models.CoverageConfig, error)
}

// CoverageService computes applicant coverage per municipality and barangay.
type CoverageService struct {
	applicants applicantLocator
	settings   coverageSettings
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	ttl        time.Duration
	now        func() time.Time
}

func NewCoverageService(applicants applicantLocator, settings coverageSettings, cache *CacheService, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *CoverageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoverageService{
		applicants: applicants,
		settings:   settings,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Summary aggregates coverage for filter and reports whether it came from cache.
func (s *CoverageService) Summary(ctx context.Context, filter models.CoverageFilter) (*models.CoverageReport, bool, error) {
	programID := strings.TrimSpace(filter.ProgramID)
	key := cacheKey(cacheNamespaceCoverage, programID)

	var cached models.CoverageReport
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	start := time.Now()
	locations, err := s.applicants.Locations(ctx, programID)
	s.metrics.ObserveDBQuery("coverage_locations", time.Since(start))
	if err != nil {
		return nil, false, err
	}
	ref, err := s.settings.PopulationReference(ctx)
	if err != nil {
		return nil, false, err
	}
	tiers, err := s.settings.CoverageConfig(ctx)
	if err != nil {
		return nil, false, err
	}

	report := &models.CoverageReport{
		ProgramID:       strPtr(programID),
		TotalApplicants: len(locations),
		Municipalities:  AggregateCoverage(locations, ref, tiers),
		GeneratedAt:     s.now().UTC(),
	}
	s.metrics.RecordCoverageAggregation()
	s.logger.Debug("coverage aggregated",
		zap.String("program_id", programID),
		zap.Int("applicants", report.TotalApplicants),
		zap.Int("municipalities", len(report.Municipalities)))

	_ = s.cache.Set(ctx, key, report, s.ttl)
	return report, false, nil
}
