package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/unilab-dev/uni-records-api/internal/models"
)

const studentViewColumns = `s.id, s.last_name, s.first_name, s.middle_name, s.group_id,
        s.gender, s.birth_date, s.email, s.phone, g.group_number, g.direction`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns denormalized student views matching the provided filters.
// Absent filters impose no restriction; active ones combine with AND. The
// ordering is fixed: group number, then last name, then first name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, error) {
	base := fmt.Sprintf(`SELECT %s FROM students s JOIN groups g ON g.id = s.group_id`, studentViewColumns)
	var conditions []string
	var args []interface{}

	if filter.GroupNumber != "" {
		conditions = append(conditions, fmt.Sprintf("g.group_number = $%d", len(args)+1))
		args = append(args, filter.GroupNumber)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.last_name) LIKE $%d OR LOWER(s.first_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))
	}
	base += " ORDER BY g.group_number, s.last_name, s.first_name"

	var students []models.StudentView
	if err := r.db.SelectContext(ctx, &students, base, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a denormalized student view by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentView, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s JOIN groups g ON g.id = s.group_id WHERE s.id = $1`, studentViewColumns)
	var view models.StudentView
	if err := r.db.GetContext(ctx, &view, query, id); err != nil {
		return nil, err
	}
	return &view, nil
}

// Create inserts a new student record and fills in its assigned ID.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (last_name, first_name, middle_name, group_id, gender, birth_date, email, phone)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		student.LastName, student.FirstName, student.MiddleName, student.GroupID,
		student.Gender, student.BirthDate, student.Email, student.Phone).Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update replaces the full student record.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET last_name = $1, first_name = $2, middle_name = $3, group_id = $4,
        gender = $5, birth_date = $6, email = $7, phone = $8 WHERE id = $9`
	res, err := r.db.ExecContext(ctx, query,
		student.LastName, student.FirstName, student.MiddleName, student.GroupID,
		student.Gender, student.BirthDate, student.Email, student.Phone, student.ID)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a student together with all owned exams in one transaction,
// so a partial cascade is never observable even if the engine's own CASCADE
// rule were missing.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM exams WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student exams: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}
