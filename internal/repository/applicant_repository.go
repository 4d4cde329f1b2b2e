package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

// ApplicantRepository persists program applicants.
type ApplicantRepository struct {
	db *sqlx.DB
}

func NewApplicantRepository(db *sqlx.DB) *ApplicantRepository {
	return &ApplicantRepository{db: db}
}

func (r *ApplicantRepository) List(ctx context.Context, filter models.ApplicantFilter) ([]models.Applicant, int, error) {
	var conditions []string
	var args []interface{}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Municipality != "" {
		conditions = append(conditions, fmt.Sprintf("municipality = $%d", len(args)+1))
		args = append(args, filter.Municipality)
	}

	base := "FROM applicants"
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT id, full_name, COALESCE(municipality, '') AS municipality, COALESCE(barangay, '') AS barangay, program_id, created_at
%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	var applicants []models.Applicant
	if err := r.db.SelectContext(ctx, &applicants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applicants: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count applicants: %w", err)
	}
	return applicants, total, nil
}

func (r *ApplicantRepository) Create(ctx context.Context, applicant *models.Applicant) error {
	if applicant.ID == "" {
		applicant.ID = uuid.NewString()
	}
	applicant.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO applicants (id, full_name, municipality, barangay, program_id, created_at)
VALUES (:id, :full_name, :municipality, :barangay, :program_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, applicant); err != nil {
		return fmt.Errorf("create applicant: %w", err)
	}
	return nil
}

// Locations projects applicants onto municipality and barangay, optionally for one program.
// Missing values come back as empty strings.
func (r *ApplicantRepository) Locations(ctx context.Context, programID string) ([]models.ApplicantLocation, error) {
	query := `SELECT COALESCE(municipality, '') AS municipality, COALESCE(barangay, '') AS barangay FROM applicants`
	var args []interface{}
	if programID != "" {
		query += " WHERE program_id = $1"
		args = append(args, programID)
	}
	var locations []models.ApplicantLocation
	if err := r.db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, fmt.Errorf("list applicant locations: %w", err)
	}
	return locations, nil
}
