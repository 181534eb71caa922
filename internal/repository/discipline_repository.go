package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unilab-dev/uni-records-api/internal/models"
)

// DisciplineRepository manages persistence for disciplines.
type DisciplineRepository struct {
	db *sqlx.DB
}

// NewDisciplineRepository constructs a DisciplineRepository.
func NewDisciplineRepository(db *sqlx.DB) *DisciplineRepository {
	return &DisciplineRepository{db: db}
}

// List returns disciplines, optionally restricted to one direction, ordered
// by course, semester and name.
func (r *DisciplineRepository) List(ctx context.Context, direction string) ([]models.Discipline, error) {
	query := `SELECT id, name, course, semester, direction FROM disciplines`
	args := []interface{}{}
	if direction != "" {
		query += ` WHERE direction = $1`
		args = append(args, direction)
	}
	query += ` ORDER BY course, semester, name`

	var disciplines []models.Discipline
	if err := r.db.SelectContext(ctx, &disciplines, query, args...); err != nil {
		return nil, fmt.Errorf("list disciplines: %w", err)
	}
	return disciplines, nil
}

// FindByID fetches a discipline by ID.
func (r *DisciplineRepository) FindByID(ctx context.Context, id int64) (*models.Discipline, error) {
	const query = `SELECT id, name, course, semester, direction FROM disciplines WHERE id = $1`
	var discipline models.Discipline
	if err := r.db.GetContext(ctx, &discipline, query, id); err != nil {
		return nil, err
	}
	return &discipline, nil
}

// Create inserts a new discipline and fills in its assigned ID.
func (r *DisciplineRepository) Create(ctx context.Context, discipline *models.Discipline) error {
	const query = `INSERT INTO disciplines (name, course, semester, direction)
        VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		discipline.Name, discipline.Course, discipline.Semester, discipline.Direction).Scan(&discipline.ID); err != nil {
		return fmt.Errorf("create discipline: %w", err)
	}
	return nil
}
