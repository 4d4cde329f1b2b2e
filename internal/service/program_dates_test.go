package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

func manila(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	return loc
}

func epoch(t time.Time) *int64 {
	v := t.Unix()
	return &v
}

func TestNormalizeSameDayRange(t *testing.T) {
	loc := manila(t)
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, loc)
	program := models.Program{ID: "p1", StartDate: epoch(start), EndDate: epoch(start.Add(8 * time.Hour))}

	got := NormalizeProgramDates(program, loc)

	require.Len(t, got.Dates, 1)
	assert.True(t, got.Dates[0].Time.Equal(start))
	assert.False(t, got.IsDiscreteMode)
	assert.False(t, got.DualMode)
}

func TestNormalizeRangeExcludesEndDay(t *testing.T) {
	loc := manila(t)
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, loc)
	for _, endHour := range []int{7, 8, 17} {
		end := time.Date(2024, 3, 6, endHour, 0, 0, 0, loc)
		got := NormalizeProgramDates(models.Program{StartDate: epoch(start), EndDate: epoch(end)}, loc)

		require.Len(t, got.Dates, 5, "end hour %d", endHour)
		for i, d := range got.Dates {
			assert.Equal(t, 1+i, d.Time.In(loc).Day())
		}
		assert.False(t, got.IsDiscreteMode)
	}
}

func TestNormalizeRangeDayBoundaryFollowsLocation(t *testing.T) {
	loc := manila(t)
	// 20:00 UTC on 1 March is 04:00 on 2 March in Manila; 10:00 UTC on 2 March is 18:00.
	start := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	program := models.Program{StartDate: epoch(start), EndDate: epoch(end)}

	inUTC := NormalizeProgramDates(program, time.UTC).Dates
	require.Len(t, inUTC, 2)
	assert.Equal(t, 1, inUTC[0].Time.Day())

	inManila := NormalizeProgramDates(program, loc).Dates
	require.Len(t, inManila, 1)
	assert.Equal(t, 2, inManila[0].Time.Day())
	assert.Equal(t, loc, inManila[0].Time.Location())
}

func TestNormalizeReversedRange(t *testing.T) {
	loc := manila(t)
	start := time.Date(2024, 3, 5, 8, 0, 0, 0, loc)
	got := NormalizeProgramDates(models.Program{StartDate: epoch(start), EndDate: epoch(start.AddDate(0, 0, -3))}, loc)
	assert.Empty(t, got.Dates)
	assert.NotNil(t, got.Dates)
}

func TestNormalizeZeroIsPresent(t *testing.T) {
	zero := int64(0)
	got := NormalizeProgramDates(models.Program{StartDate: &zero, EndDate: &zero}, time.UTC)
	require.Len(t, got.Dates, 1)
	assert.Equal(t, int64(0), got.Dates[0].Time.Unix())
}

func TestNormalizeSelectedDates(t *testing.T) {
	program := models.Program{SelectedDates: models.DateValues{models.EpochDate(1700000000), models.EpochDate(1700003600)}}

	got := NormalizeProgramDates(program, nil)

	require.Len(t, got.Dates, 2)
	assert.True(t, got.IsDiscreteMode)
	assert.Equal(t, time.Hour, got.Dates[1].Time.Sub(got.Dates[0].Time))
	assert.Equal(t, int64(1700000000000), got.Dates[0].UnixMilli())
}

func TestNormalizeSelectedDatesKeepsInvalidEntries(t *testing.T) {
	program := models.Program{SelectedDates: models.DateValues{
		models.TimestampDate(1700000000, 0),
		models.StringDate("sometime soon"),
		models.DecodeDateValue([]byte("null")),
		models.EpochDate(1700000000000),
	}}

	got := NormalizeProgramDates(program, time.UTC)

	require.Len(t, got.Dates, 4)
	assert.True(t, got.Dates[0].Valid)
	assert.False(t, got.Dates[1].Valid)
	assert.False(t, got.Dates[2].Valid)
	assert.True(t, got.Dates[0].Equal(got.Dates[3]))
}

func TestNormalizeDualModePrefersRange(t *testing.T) {
	loc := manila(t)
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, loc)
	program := models.Program{
		StartDate:     epoch(start),
		EndDate:       epoch(start.AddDate(0, 0, 2)),
		SelectedDates: models.DateValues{models.EpochDate(1700000000)},
	}

	got := NormalizeProgramDates(program, loc)

	assert.Len(t, got.Dates, 2)
	assert.False(t, got.IsDiscreteMode)
	assert.True(t, got.DualMode)
}

func TestNormalizeWithoutDates(t *testing.T) {
	start := int64(1700000000)
	for _, program := range []models.Program{{}, {StartDate: &start}, {SelectedDates: models.DateValues{}}} {
		got := NormalizeProgramDates(program, time.UTC)
		assert.Empty(t, got.Dates)
		assert.False(t, got.IsDiscreteMode)
	}
}
