package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

var programRowColumns = []string{"id", "program_title", "type", "program_venue", "trainer_assigned", "start_date", "end_date", "selected_dates", "created_at", "updated_at"}

func TestProgramRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(programRowColumns).
		AddRow("p1", "Basic Fire Safety", "Fire Safety", "Municipal Gym", `"trainer-a"`, int64(1709251200), int64(1709683200), nil, now, now).
		AddRow("p2", "First Aid", "First Aid", "Barangay Hall", `["trainer-a","trainer-b"]`, nil, nil, `[1700000000, {"_seconds": 1700003600}]`, now, now)
	mock.ExpectQuery(`SELECT .* FROM training_programs WHERE trainer_assigned @> jsonb_build_array\(\$1::text\) AND LOWER\(program_title\) LIKE \$2 ORDER BY created_at DESC LIMIT 10 OFFSET 10`).
		WithArgs("trainer-a", "%fire%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM training_programs WHERE`).
		WithArgs("trainer-a", "%fire%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	programs, total, err := repo.List(context.Background(), models.ProgramFilter{Trainer: "trainer-a", Search: "Fire", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, programs, 2)

	assert.Equal(t, models.TrainerList{"trainer-a"}, programs[0].TrainerAssigned)
	require.True(t, programs[0].HasRange())
	assert.Equal(t, int64(1709251200), *programs[0].StartDate)

	assert.False(t, programs[1].HasRange())
	require.Len(t, programs[1].SelectedDates, 2)
	assert.Equal(t, models.DateKindEpochSeconds, programs[1].SelectedDates[0].Kind)
	assert.Equal(t, models.DateKindTimestamp, programs[1].SelectedDates[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	start, end := int64(1709251200), int64(1709683200)
	mock.ExpectExec(`INSERT INTO training_programs`).
		WithArgs(sqlmock.AnyArg(), "Basic Fire Safety", "Fire Safety", "Municipal Gym", []byte(`["trainer-a"]`), start, end, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	program := &models.Program{
		ProgramTitle:    "Basic Fire Safety",
		Type:            "Fire Safety",
		ProgramVenue:    "Municipal Gym",
		TrainerAssigned: models.TrainerList{"trainer-a"},
		StartDate:       &start,
		EndDate:         &end,
	}
	require.NoError(t, repo.Create(context.Background(), program))
	assert.NotEmpty(t, program.ID)
	assert.False(t, program.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectExec(`UPDATE training_programs SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Program{ID: "ghost"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestProgramRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectExec(`DELETE FROM training_programs WHERE id = \$1`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "p1"))

	mock.ExpectExec(`DELETE FROM training_programs`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "p1"), sql.ErrNoRows)
}

func TestProgramRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectQuery(`SELECT .* FROM training_programs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
