package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

func TestApplicantRepositoryLocations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicantRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(municipality, ''\) AS municipality, COALESCE\(barangay, ''\) AS barangay FROM applicants WHERE program_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"municipality", "barangay"}).
			AddRow("Daet", "Bagasbas").
			AddRow("", ""))

	locations, err := repo.Locations(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []models.ApplicantLocation{{Municipality: "Daet", Barangay: "Bagasbas"}, {}}, locations)

	mock.ExpectQuery(`FROM applicants$`).
		WillReturnRows(sqlmock.NewRows([]string{"municipality", "barangay"}))
	locations, err = repo.Locations(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, locations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepositoryListAndCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicantRepository(db)

	mock.ExpectQuery(`SELECT id, full_name, .* FROM applicants WHERE program_id = \$1 AND municipality = \$2 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs("p1", "Daet").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "municipality", "barangay", "program_id", "created_at"}).
			AddRow("a1", "Juan Dela Cruz", "Daet", "Bagasbas", "p1", time.Now()))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM applicants WHERE`).
		WithArgs("p1", "Daet").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	applicants, total, err := repo.List(context.Background(), models.ApplicantFilter{ProgramID: "p1", Municipality: "Daet"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, applicants, 1)
	assert.Equal(t, "p1", *applicants[0].ProgramID)

	mock.ExpectExec(`INSERT INTO applicants`).
		WithArgs(sqlmock.AnyArg(), "Maria Clara", "Daet", "Lag-on", "p1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	applicant := &models.Applicant{FullName: "Maria Clara", Municipality: "Daet", Barangay: "Lag-on", ProgramID: strPtr("p1")}
	require.NoError(t, repo.Create(context.Background(), applicant))
	assert.NotEmpty(t, applicant.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
