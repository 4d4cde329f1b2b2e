package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/internal/dto"
	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/realtime"
)

type applicantRepository interface {
	List(ctx context.Context, filter models.ApplicantFilter) ([]models.Applicant, int, error)
	Create(ctx context.Context, applicant *models.Applicant) error
	Locations(ctx context.Context, programID string) ([]models.ApplicantLocation, error)
}

// ApplicantService registers applicants and exposes their locations for coverage.
type ApplicantService struct {
	repo      applicantRepository
	programs  programReader
	cache     *CacheService
	events    eventPublisher
	validator *validator.Validate
	logger    *zap.Logger
}

type programReader interface {
	Get(ctx context.Context, id string) (*models.Program, error)
}

func NewApplicantService(repo applicantRepository, programs programReader, cache *CacheService, events eventPublisher, validate *validator.Validate, logger *zap.Logger) *ApplicantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicantService{repo: repo, programs: programs, cache: cache, events: events, validator: validate, logger: logger}
}

func (s *ApplicantService) List(ctx context.Context, filter models.ApplicantFilter) ([]models.Applicant, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	applicants, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list applicants")
	}
	return applicants, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create stores an applicant, checking the referenced program when one is given.
func (s *ApplicantService) Create(ctx context.Context, req dto.CreateApplicantRequest) (*models.Applicant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid applicant payload")
	}
	if req.ProgramID != nil && s.programs != nil {
		if _, err := s.programs.Get(ctx, *req.ProgramID); err != nil {
			return nil, err
		}
	}
	applicant := &models.Applicant{
		FullName:     strings.TrimSpace(req.FullName),
		Municipality: strings.TrimSpace(req.Municipality),
		Barangay:     strings.TrimSpace(req.Barangay),
		ProgramID:    req.ProgramID,
	}
	if err := s.repo.Create(ctx, applicant); err != nil {
		return nil, internalError(err, "failed to create applicant")
	}
	_ = s.cache.Invalidate(ctx, cacheNamespaceCoverage)
	publish(s.events, realtime.TopicCoverage, realtime.EventCoverageInvalidated, applicant.Municipality)
	return applicant, nil
}

// Locations returns the municipality and barangay of every applicant, optionally for one program.
func (s *ApplicantService) Locations(ctx context.Context, programID string) ([]models.ApplicantLocation, error) {
	locations, err := s.repo.Locations(ctx, programID)
	if err != nil {
		return nil, internalError(err, "failed to load applicant locations")
	}
	return locations, nil
}
