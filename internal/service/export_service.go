package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/internal/models"
	"github.com/noah-isme/drrm-training-api/pkg/export"
	"github.com/noah-isme/drrm-training-api/pkg/storage"
)

type coverageSummarizer interface {
	Summary(ctx context.Context, filter models.CoverageFilter) (*models.CoverageReport, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Location  *time.Location
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	programs  programLister
	coverage  coverageSummarizer
	storage   fileStorage
	renderers map[models.ReportFormat]export.Renderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the CSV and PDF defaults.
func NewExportService(programs programLister, coverage coverageSummarizer, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf export.Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVRenderer()
	}
	if pdf == nil {
		pdf = export.NewPDFRenderer()
	}
	return &ExportService{
		programs: programs,
		coverage: coverage,
		storage:  files,
		renderers: map[models.ReportFormat]export.Renderer{
			models.ReportFormatCSV: csv,
			models.ReportFormatPDF: pdf,
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate builds the dataset for job, renders it and stores the file behind a signed URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Params.Format, err)
	}

	relPath, err := s.storage.Save(s.buildFilename(job, renderer.Extension()), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("report rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Token, error) {
	return s.signer.Parse(token, allowExpired)
}

// ContentType returns the MIME type for format.
func (s *ExportService) ContentType(format models.ReportFormat) string {
	if renderer, ok := s.renderers[format]; ok {
		return renderer.ContentType()
	}
	return "application/octet-stream"
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob, extension string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	scope := "all"
	if job.Params.ProgramID != nil {
		scope = sanitizeFilename(*job.Params.ProgramID)
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scope, timestamp, extension)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	switch job.Type {
	case models.ReportTypeCoverageMunicipality:
		return s.buildMunicipalityDataset(ctx, job.Params)
	case models.ReportTypeCoverageBarangay:
		return s.buildBarangayDataset(ctx, job.Params)
	case models.ReportTypeTrainingCalendar:
		return s.buildCalendarDataset(ctx, job.Params)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) loadCoverage(ctx context.Context, params models.ReportJobParams) (*models.CoverageReport, []string, error) {
	report, _, err := s.coverage.Summary(ctx, models.CoverageFilter{ProgramID: deref(params.ProgramID)})
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(report.Municipalities))
	for name := range report.Municipalities {
		if params.Municipality != nil && *params.Municipality != "" && name != *params.Municipality {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return report, names, nil
}

func (s *ExportService) buildMunicipalityDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	report, names, err := s.loadCoverage(ctx, params)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{
		Title:    "Training Coverage by Municipality",
		Subtitle: s.coverageSubtitle(report, params),
		Headers:  []string{"Municipality", "Applicants", "Population", "Coverage (%)", "Tier"},
	}
	for _, name := range names {
		stat := report.Municipalities[name]
		dataset.AddRow(name, strconv.Itoa(stat.TotalApplicants), stat.TotalPopulation.String(), formatPercent(stat.CoveragePercent), stat.Tier)
	}
	return dataset, nil
}

func (s *ExportService) buildBarangayDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	report, names, err := s.loadCoverage(ctx, params)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{
		Title:    "Training Coverage by Barangay",
		Subtitle: s.coverageSubtitle(report, params),
		Headers:  []string{"Municipality", "Barangay", "Applicants", "Population", "Coverage (%)", "Tier"},
	}
	for _, name := range names {
		barangays := report.Municipalities[name].Barangays
		keys := make([]string, 0, len(barangays))
		for barangay := range barangays {
			keys = append(keys, barangay)
		}
		sort.Strings(keys)
		for _, barangay := range keys {
			entry := barangays[barangay]
			dataset.AddRow(name, barangay, strconv.Itoa(entry.Applicants), entry.TotalPopulation.String(), formatPercent(entry.CoveragePercent), entry.Tier)
		}
	}
	return dataset, nil
}

func (s *ExportService) buildCalendarDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	programs, err := s.programs.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	build := BuildCalendarEvents(programs, params.Filters, s.cfg.Location)
	sort.SliceStable(build.Events, func(i, j int) bool {
		return build.Events[i].Start.UnixMilli() < build.Events[j].Start.UnixMilli()
	})

	dataset := export.Dataset{
		Title:    "Training Calendar",
		Subtitle: []string{fmt.Sprintf("Generated %s", s.formatInstant(models.InstantOf(s.now())))},
		Headers:  []string{"Program", "Type", "Venue", "Trainers", "Start", "End"},
	}
	if params.Filters.Active() {
		dataset.Subtitle = append(dataset.Subtitle, fmt.Sprintf("Filters: trainer=%q type=%q venue=%q", params.Filters.Trainer, params.Filters.Type, params.Filters.Venue))
	}
	for _, event := range build.Events {
		props := event.ExtendedProps
		dataset.AddRow(event.Title, props.Type, props.ProgramVenue, props.Trainer, s.formatInstant(event.Start), s.formatInstant(event.End))
	}
	return dataset, nil
}

func (s *ExportService) coverageSubtitle(report *models.CoverageReport, params models.ReportJobParams) []string {
	lines := []string{
		fmt.Sprintf("Generated %s", s.formatInstant(models.InstantOf(report.GeneratedAt))),
		fmt.Sprintf("Total applicants: %d", report.TotalApplicants),
	}
	if params.ProgramID != nil {
		lines = append(lines, fmt.Sprintf("Program: %s", *params.ProgramID))
	}
	return lines
}

func (s *ExportService) formatInstant(i models.Instant) string {
	if !i.Valid {
		return models.InvalidDateSentinel
	}
	return i.Time.In(s.cfg.Location).Format("2006-01-02 15:04")
}

func formatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 2, 64)
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
