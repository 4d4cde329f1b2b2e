package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
)

func calendarPrograms() []models.Program {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).Unix()
	end := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC).Unix()
	return []models.Program{
		{ID: "p1", ProgramTitle: "Basic Life Support", Type: "First Aid", ProgramVenue: "City Hall", TrainerAssigned: models.TrainerList{"Ana"}, StartDate: &start, EndDate: &end},
		{ID: "p2", ProgramTitle: "Fire Drill", Type: "Drill", ProgramVenue: "Gym", TrainerAssigned: models.TrainerList{"Ben"},
			StartDate: &start, EndDate: &end, SelectedDates: models.DateValues{models.StringDate("2024-03-10")}},
	}
}

func TestCalendarServiceBuildCachesResult(t *testing.T) {
	programs := &programListerStub{programs: calendarPrograms()}
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewCalendarService(programs, cache, NewMetricsService(), nil, CalendarServiceConfig{Location: time.UTC, CacheTTL: 2 * time.Minute})

	build, hit, err := svc.Build(context.Background(), models.CalendarFilters{Trainer: "Ana"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, build.Events, 1)
	assert.Equal(t, "Basic Life Support", build.Events[0].Title)
	assert.Equal(t, []string{"Ana", "Ben"}, build.TrainerOptions)
	assert.Equal(t, []string{"p2"}, build.FlaggedPrograms)
	assert.Equal(t, 2*time.Minute, cacheRepo.ttls[cacheKey(cacheNamespaceCalendar, "Ana", "", "")])

	cached, hit, err := svc.Build(context.Background(), models.CalendarFilters{Trainer: "Ana"})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, programs.calls)
	require.Len(t, cached.Events, 1)
	assert.True(t, cached.Events[0].Start.Equal(build.Events[0].Start))
	assert.Equal(t, build.Events[0].Color, cached.Events[0].Color)
}

func TestCalendarServiceCachesFiltersByExactValue(t *testing.T) {
	programs := &programListerStub{programs: calendarPrograms()}
	cache := NewCacheService(newCacheRepoStub(), nil, time.Minute, nil, true)
	svc := NewCalendarService(programs, cache, nil, nil, CalendarServiceConfig{Location: time.UTC})

	lower, hit, err := svc.Build(context.Background(), models.CalendarFilters{Type: "first aid"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, lower.Events)

	exact, hit, err := svc.Build(context.Background(), models.CalendarFilters{Type: "First Aid"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, exact.Events, 1)
	assert.Equal(t, "Basic Life Support", exact.Events[0].Title)

	blank, hit, err := svc.Build(context.Background(), models.CalendarFilters{Type: " "})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, blank.Events)

	all, hit, err := svc.Build(context.Background(), models.CalendarFilters{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, all.Events, 2)
	assert.Equal(t, 4, programs.calls)
}

func TestCalendarServiceWithoutCache(t *testing.T) {
	programs := &programListerStub{programs: calendarPrograms()}
	svc := NewCalendarService(programs, nil, nil, nil, CalendarServiceConfig{})

	build, hit, err := svc.Build(context.Background(), models.CalendarFilters{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, build.Events, 2)
	assert.Equal(t, time.UTC, svc.Location())
}

func TestCalendarServiceListError(t *testing.T) {
	svc := NewCalendarService(&programListerStub{err: errors.New("db down")}, nil, nil, nil, CalendarServiceConfig{})
	_, _, err := svc.Build(context.Background(), models.CalendarFilters{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
