package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/drrm-training-api/internal/models"
)

const programColumns = `id, program_title, type, program_venue, trainer_assigned, start_date, end_date, selected_dates, created_at, updated_at`

// ProgramRepository persists training programs.
type ProgramRepository struct {
	db *sqlx.DB
}

func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns one page of programs matching filter plus the total match count.
func (r *ProgramRepository) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Trainer != "" {
		conditions = append(conditions, fmt.Sprintf("trainer_assigned @> jsonb_build_array($%d::text)", len(args)+1))
		args = append(args, filter.Trainer)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Venue != "" {
		conditions = append(conditions, fmt.Sprintf("program_venue = $%d", len(args)+1))
		args = append(args, filter.Venue)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(program_title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base := "FROM training_programs"
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", programColumns, base, size, (page-1)*size)

	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}
	return programs, total, nil
}

// ListAll returns every program; the calendar is always built from the full set.
func (r *ProgramRepository) ListAll(ctx context.Context) ([]models.Program, error) {
	query := fmt.Sprintf("SELECT %s FROM training_programs ORDER BY created_at ASC", programColumns)
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list all programs: %w", err)
	}
	return programs, nil
}

// FindByID returns sql.ErrNoRows when the program does not exist.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	query := fmt.Sprintf("SELECT %s FROM training_programs WHERE id = $1", programColumns)
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program: %w", err)
	}
	return &program, nil
}

func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	const query = `INSERT INTO training_programs (id, program_title, type, program_venue, trainer_assigned, start_date, end_date, selected_dates, created_at, updated_at)
VALUES (:id, :program_title, :type, :program_venue, :trainer_assigned, :start_date, :end_date, :selected_dates, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update overwrites a program; sql.ErrNoRows signals an unknown id.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE training_programs SET program_title = :program_title, type = :type, program_venue = :program_venue,
trainer_assigned = :trainer_assigned, start_date = :start_date, end_date = :end_date, selected_dates = :selected_dates,
updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, program)
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return expectAffected(res, "update program")
}

func (r *ProgramRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM training_programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return expectAffected(res, "delete program")
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
