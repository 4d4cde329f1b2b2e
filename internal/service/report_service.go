package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/internal/dto"
	"github.com/noah-isme/drrm-training-api/internal/models"
	"github.com/noah-isme/drrm-training-api/internal/repository"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/jobs"
	"github.com/noah-isme/drrm-training-api/pkg/realtime"
)

const (
	recoverBatchSize = 50
	cleanupBatchSize = 100
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

// ReportQueueJob is the unit placed on the report queue; the payload is the report type.
type ReportQueueJob = jobs.Job[string]

type jobDispatcher interface {
	Enqueue(job ReportQueueJob) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

// jobTransition accumulates the columns changed by one status move.
type jobTransition struct {
	params repository.UpdateReportJobParams
}

func transitionTo(status models.ReportStatus, progress int) *jobTransition {
	return &jobTransition{params: repository.UpdateReportJobParams{Status: &status, Progress: &progress}}
}

func (t *jobTransition) withError(msg string) *jobTransition {
	t.params.ErrorMessage = &msg
	return t
}

func (t *jobTransition) withResult(url string) *jobTransition {
	t.params.ResultURL = &url
	return t
}

func (t *jobTransition) closedAt(ts time.Time) *jobTransition {
	ts = ts.UTC()
	t.params.FinishedAt = &ts
	return t
}

func (t *jobTransition) apply(ctx context.Context, repo reportJobStore, id string) error {
	return repo.Update(ctx, id, t.params)
}

func queueJobFor(job *models.ReportJob) ReportQueueJob {
	return ReportQueueJob{ID: job.ID, Payload: string(job.Type)}
}

// ReportServiceConfig governs result retention and the cleanup sweep.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload is an opened export ready to stream.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ReportService accepts export requests, tracks their jobs and serves finished files.
type ReportService struct {
	repo      reportJobStore
	queue     jobDispatcher
	exporter  *ExportService
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

func NewReportService(repo reportJobStore, queue jobDispatcher, exporter *ExportService, audit auditLogger, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		repo:      repo,
		queue:     queue,
		exporter:  exporter,
		audit:     audit,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateJob stores a QUEUED job and hands it to the worker queue.
func (s *ReportService) CreateJob(ctx context.Context, req dto.ReportRequest, actor *models.JWTClaims) (*dto.ReportJobResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid report request")
	}
	job := &models.ReportJob{
		Type: req.Type,
		Params: models.ReportJobParams{
			Format:       req.Format,
			ProgramID:    req.ProgramID,
			Municipality: req.Municipality,
			Filters:      req.Filters,
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, internalError(err, "failed to create report job")
	}
	if err := s.queue.Enqueue(queueJobFor(job)); err != nil {
		if updateErr := transitionTo(models.ReportStatusFailed, 100).
			withError("failed to enqueue job").
			closedAt(s.now()).
			apply(ctx, s.repo, job.ID); updateErr != nil {
			s.logger.Warn("failed to mark unqueued job", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, internalError(err, "failed to enqueue report job")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionReportCreate, "report", job.ID, nil, job.Params)
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

func (s *ReportService) GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.loadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.ReportStatusResponse{
		ID:         job.ID,
		Type:       job.Type,
		Status:     job.Status,
		Progress:   job.Progress,
		ResultURL:  job.ResultURL,
		FinishedAt: job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload checks a signed token against its job and opens the file it names.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	parsed, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.loadJob(ctx, parsed.JobID)
	if err != nil {
		return nil, err
	}
	switch {
	case job.ResultURL == nil || extractToken(*job.ResultURL) != token:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	case job.Status != models.ReportStatusFinished:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.exporter.Open(parsed.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	if err != nil {
		return nil, internalError(err, "failed to open export file")
	}
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(parsed.Path),
		ContentType: s.exporter.ContentType(job.Params.Format),
		ExpiresAt:   parsed.ExpiresAt,
	}, nil
}

// RecoverPendingJobs puts QUEUED jobs left by a previous process back on the queue.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, recoverBatchSize)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
		return
	}
	for i := range pending {
		if err := s.queue.Enqueue(queueJobFor(&pending[i])); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", pending[i].ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("report jobs recovered", zap.Int("count", len(pending)))
	}
}

// StartCleanup sweeps expired exports every CleanupInterval until ctx ends.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ReportService) cleanupExpired(ctx context.Context) {
	expired, err := s.repo.ListFinishedBefore(ctx, s.now().Add(-s.cfg.ResultTTL), cleanupBatchSize)
	if err != nil {
		s.logger.Warn("cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		parsed, err := s.exporter.ParseToken(extractToken(*job.ResultURL), true)
		if err != nil {
			continue
		}
		if err := s.exporter.Delete(parsed.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	removed, err := s.exporter.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}

func (s *ReportService) loadJob(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	if err != nil {
		return nil, internalError(err, "failed to load report job")
	}
	return job, nil
}

// extractToken returns the last path segment of a download URL.
func extractToken(url string) string {
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}

// ReportWorker runs queued report jobs through the ExportService.
type ReportWorker struct {
	repo     reportJobStore
	exporter exportGenerator
	metrics  *MetricsService
	events   eventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewReportWorker(repo reportJobStore, exporter exportGenerator, metrics *MetricsService, events eventPublisher, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWorker{repo: repo, exporter: exporter, metrics: metrics, events: events, logger: logger, now: time.Now}
}

// Handle processes a queue job. A returned error asks the queue to retry, so a
// failed attempt puts the job back to QUEUED.
func (w *ReportWorker) Handle(ctx context.Context, job ReportQueueJob) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := transitionTo(models.ReportStatusProcessing, 10).apply(ctx, w.repo, job.ID); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		w.logger.Warn("report generation failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		if updateErr := transitionTo(models.ReportStatusQueued, 0).withError(err.Error()).apply(ctx, w.repo, job.ID); updateErr != nil {
			w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	if err := transitionTo(models.ReportStatusFinished, 100).
		withResult(result.URL).
		withError("").
		closedAt(w.now()).
		apply(ctx, w.repo, job.ID); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.RecordReportJob(string(record.Type), string(models.ReportStatusFinished))
	publish(w.events, realtime.TopicReports, realtime.EventReportFinished, job.ID)
	return nil
}

// Exhausted marks a job FAILED once the queue gives up on it.
func (w *ReportWorker) Exhausted(ctx context.Context, job ReportQueueJob, cause error) {
	if err := transitionTo(models.ReportStatusFailed, 100).
		withError(cause.Error()).
		closedAt(w.now()).
		apply(context.WithoutCancel(ctx), w.repo, job.ID); err != nil {
		w.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	w.metrics.RecordReportJob(job.Payload, string(models.ReportStatusFailed))
	publish(w.events, realtime.TopicReports, realtime.EventReportFinished, job.ID)
}
