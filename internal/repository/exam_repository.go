package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unilab-dev/uni-records-api/internal/models"
)

const examViewColumns = `e.id, e.student_id, e.discipline_id, e.exam_date, e.grade, e.teacher, e.room, e.notes,
        d.name AS discipline_name, d.course, d.semester`

// ExamRepository manages persistence for exam records.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ListByStudent returns the student's exams denormalized with discipline
// data, newest exam first, then by course and semester.
func (r *ExamRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.ExamView, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams e JOIN disciplines d ON d.id = e.discipline_id
        WHERE e.student_id = $1 ORDER BY e.exam_date DESC, d.course, d.semester`, examViewColumns)
	var exams []models.ExamView
	if err := r.db.SelectContext(ctx, &exams, query, studentID); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// FindByID fetches a denormalized exam view by ID.
func (r *ExamRepository) FindByID(ctx context.Context, id int64) (*models.ExamView, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams e JOIN disciplines d ON d.id = e.discipline_id WHERE e.id = $1`, examViewColumns)
	var view models.ExamView
	if err := r.db.GetContext(ctx, &view, query, id); err != nil {
		return nil, err
	}
	return &view, nil
}

// Create inserts a new exam record and fills in its assigned ID.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	const query = `INSERT INTO exams (student_id, discipline_id, exam_date, grade, teacher, room, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		exam.StudentID, exam.DisciplineID, exam.ExamDate, exam.Grade,
		exam.Teacher, exam.Room, exam.Notes).Scan(&exam.ID); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// Update replaces the full exam record. The owning student never changes.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	const query = `UPDATE exams SET discipline_id = $1, exam_date = $2, grade = $3, teacher = $4,
        room = $5, notes = $6 WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query,
		exam.DisciplineID, exam.ExamDate, exam.Grade, exam.Teacher, exam.Room, exam.Notes, exam.ID)
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exam rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a single exam record.
func (r *ExamRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM exams WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exam rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
