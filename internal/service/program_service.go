package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/internal/dto"
	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/realtime"
)

type programRepository interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error)
	ListAll(ctx context.Context) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	Delete(ctx context.Context, id string) error
}

// ProgramService manages training programs and keeps dependent views fresh.
type ProgramService struct {
	repo      programRepository
	cache     *CacheService
	events    eventPublisher
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
}

func NewProgramService(repo programRepository, cache *CacheService, events eventPublisher, audit auditLogger, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProgramService{repo: repo, cache: cache, events: events, audit: audit, validator: validate, logger: logger, loc: loc}
}

// List returns a page of programs.
func (s *ProgramService) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	programs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list programs")
	}
	return programs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListAll returns every program; calendar builds and exports read through here.
func (s *ProgramService) ListAll(ctx context.Context) ([]models.Program, error) {
	programs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, internalError(err, "failed to load programs")
	}
	return programs, nil
}

func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, internalError(err, "failed to load program")
	}
	return program, nil
}

// Dates returns the normalized day instants of one program.
func (s *ProgramService) Dates(ctx context.Context, id string) (*dto.ProgramDatesResponse, error) {
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	normalized := NormalizeProgramDates(*program, s.loc)
	if normalized.DualMode {
		s.logger.Warn("program carries both a date range and selected dates", zap.String("program_id", program.ID))
	}
	return &dto.ProgramDatesResponse{ProgramID: program.ID, NormalizedDates: normalized}, nil
}

func (s *ProgramService) Create(ctx context.Context, req dto.ProgramRequest, actor *models.JWTClaims) (*models.Program, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	program := programFromRequest(req)
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, internalError(err, "failed to create program")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "program", program.ID, nil, program)
	s.invalidate(ctx, program.ID, false)
	return program, nil
}

func (s *ProgramService) Update(ctx context.Context, id string, req dto.ProgramRequest, actor *models.JWTClaims) (*models.Program, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	program := programFromRequest(req)
	program.ID = existing.ID
	program.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, program); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, internalError(err, "failed to update program")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "program", program.ID, existing, program)
	s.invalidate(ctx, program.ID, false)
	return program, nil
}

func (s *ProgramService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return internalError(err, "failed to delete program")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "program", id, nil, nil)
	s.invalidate(ctx, id, true)
	return nil
}

// validateRequest enforces that exactly one date mode is supplied.
func (s *ProgramService) validateRequest(req dto.ProgramRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid program payload")
	}
	hasStart, hasEnd := req.StartDate != nil, req.EndDate != nil
	hasSelected := len(req.SelectedDates) > 0
	switch {
	case hasStart != hasEnd:
		return appErrors.Clone(appErrors.ErrValidation, "startDate and endDate must be supplied together")
	case hasStart && hasSelected:
		return appErrors.ErrDualDateMode
	case !hasStart && !hasSelected:
		return appErrors.ErrMissingDateMode
	case hasStart && *req.EndDate < *req.StartDate:
		return appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}
	for i, value := range req.SelectedDates {
		if !value.Resolve(s.loc).Valid {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("selectedDates[%d] is not a recognised date", i))
		}
	}
	return nil
}

func (s *ProgramService) invalidate(ctx context.Context, programID string, coverage bool) {
	_ = s.cache.Invalidate(ctx, cacheNamespaceCalendar)
	if coverage {
		_ = s.cache.Invalidate(ctx, cacheNamespaceCoverage)
	}
	publish(s.events, realtime.TopicPrograms, realtime.EventProgramsInvalidated, programID)
}

func programFromRequest(req dto.ProgramRequest) *models.Program {
	trainers := make(models.TrainerList, 0, len(req.TrainerAssigned))
	for _, trainer := range req.TrainerAssigned {
		if trimmed := strings.TrimSpace(trainer); trimmed != "" {
			trainers = append(trainers, trimmed)
		}
	}
	return &models.Program{
		ProgramTitle:    strings.TrimSpace(req.ProgramTitle),
		Type:            strings.TrimSpace(req.Type),
		ProgramVenue:    strings.TrimSpace(req.ProgramVenue),
		TrainerAssigned: trainers,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		SelectedDates:   req.SelectedDates,
	}
}
