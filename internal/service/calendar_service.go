package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

type programLister interface {
	ListAll(ctx context.Context) ([]models.Program, error)
}

// CalendarService renders the training calendar from stored programs.
type CalendarService struct {
	programs programLister
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	loc      *time.Location
	ttl      time.Duration
}

// CalendarServiceConfig tunes calendar rendering.
type CalendarServiceConfig struct {
	Location *time.Location
	CacheTTL time.Duration
}

func NewCalendarService(programs programLister, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg CalendarServiceConfig) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &CalendarService{programs: programs, cache: cache, metrics: metrics, logger: logger, loc: cfg.Location, ttl: cfg.CacheTTL}
}

// Location is the timezone events are expressed in.
func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// Build returns the calendar for filters and whether it was served from cache.
func (s *CalendarService) Build(ctx context.Context, filters models.CalendarFilters) (models.CalendarBuild, bool, error) {
	key := cacheKey(cacheNamespaceCalendar, filters.Trainer, filters.Type, filters.Venue)

	var cached models.CalendarBuild
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	programs, err := s.programs.ListAll(ctx)
	s.metrics.ObserveDBQuery("calendar_programs", time.Since(start))
	if err != nil {
		return models.CalendarBuild{}, false, internalError(err, "failed to load programs")
	}

	build := BuildCalendarEvents(programs, filters, s.loc)
	s.metrics.RecordCalendarBuild(len(build.Events), len(build.FlaggedPrograms))
	if len(build.FlaggedPrograms) > 0 {
		s.logger.Warn("programs carry both a date range and selected dates",
			zap.Strings("program_ids", build.FlaggedPrograms))
	}

	_ = s.cache.Set(ctx, key, build, s.ttl)
	return build, false, nil
}
