package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/unilab-dev/uni-records-api/internal/models"
	"github.com/unilab-dev/uni-records-api/internal/repository"
	"github.com/unilab-dev/uni-records-api/internal/validation"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

type examRepository interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.ExamView, error)
	FindByID(ctx context.Context, id int64) (*models.ExamView, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id int64) error
}

type studentReader interface {
	FindByID(ctx context.Context, id int64) (*models.StudentView, error)
}

type disciplineReader interface {
	FindByID(ctx context.Context, id int64) (*models.Discipline, error)
}

type statsCache interface {
	Get(ctx context.Context, studentID int64, dest interface{}) error
	Set(ctx context.Context, studentID int64, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, studentID int64)
}

// CreateExamRequest holds payload for creating exams.
type CreateExamRequest struct {
	StudentID    int64     `json:"student_id"`
	DisciplineID int64     `json:"discipline_id"`
	ExamDate     time.Time `json:"exam_date"`
	Grade        int       `json:"grade"`
	Teacher      string    `json:"teacher"`
	Room         string    `json:"room"`
	Notes        string    `json:"notes"`
}

// UpdateExamRequest holds payload for replacing an exam record. The owning
// student cannot be moved.
type UpdateExamRequest struct {
	DisciplineID int64     `json:"discipline_id"`
	ExamDate     time.Time `json:"exam_date"`
	Grade        int       `json:"grade"`
	Teacher      string    `json:"teacher"`
	Room         string    `json:"room"`
	Notes        string    `json:"notes"`
}

// ExamService orchestrates exam record flows, including the direction match
// between a discipline and the student's group.
type ExamService struct {
	exams       examRepository
	students    studentReader
	disciplines disciplineReader
	cache       statsCache
	cacheTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewExamService constructs the exam service. The cache may be nil.
func NewExamService(exams examRepository, students studentReader, disciplines disciplineReader, cache statsCache, cacheTTL time.Duration, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		exams:       exams,
		students:    students,
		disciplines: disciplines,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// ListForStudent returns the student's denormalized exam records.
func (s *ExamService) ListForStudent(ctx context.Context, studentID int64) ([]models.ExamView, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load student")
	}
	exams, err := s.exams.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list exams")
	}
	return exams, nil
}

// Get returns one denormalized exam record, or NotFound.
func (s *ExamService) Get(ctx context.Context, id int64) (*models.ExamView, error) {
	exam, err := s.exams.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load exam")
	}
	return exam, nil
}

// Create registers a new exam for a student.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.ExamView, error) {
	exam := models.Exam{
		StudentID:    req.StudentID,
		DisciplineID: req.DisciplineID,
		ExamDate:     req.ExamDate,
		Grade:        req.Grade,
		Teacher:      req.Teacher,
		Room:         req.Room,
		Notes:        req.Notes,
	}
	if msgs := validation.Exam(exam, s.now()); len(msgs) > 0 {
		return nil, appErrors.Validation(msgs)
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConstraint, "student does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load student")
	}
	if err := s.checkDirection(ctx, req.DisciplineID, student); err != nil {
		return nil, err
	}

	if err := s.exams.Create(ctx, &exam); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConstraint, "student or discipline does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create exam")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, exam.StudentID)
	}
	return s.Get(ctx, exam.ID)
}

// Update replaces an existing exam record in full.
func (s *ExamService) Update(ctx context.Context, id int64, req UpdateExamRequest) (*models.ExamView, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exam := models.Exam{
		ID:           id,
		StudentID:    current.StudentID,
		DisciplineID: req.DisciplineID,
		ExamDate:     req.ExamDate,
		Grade:        req.Grade,
		Teacher:      req.Teacher,
		Room:         req.Room,
		Notes:        req.Notes,
	}
	if msgs := validation.Exam(exam, s.now()); len(msgs) > 0 {
		return nil, appErrors.Validation(msgs)
	}

	student, err := s.students.FindByID(ctx, current.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load student")
	}
	if err := s.checkDirection(ctx, req.DisciplineID, student); err != nil {
		return nil, err
	}

	if err := s.exams.Update(ctx, &exam); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConstraint, "discipline does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update exam")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, exam.StudentID)
	}
	return s.Get(ctx, id)
}

// Delete removes one exam record.
func (s *ExamService) Delete(ctx context.Context, id int64) error {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete exam")
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, exam.StudentID)
	}
	return nil
}

// Stats computes the student's exam statistics, served from cache when warm.
func (s *ExamService) Stats(ctx context.Context, studentID int64) (*models.ExamStats, error) {
	if s.cache != nil {
		var cached models.ExamStats
		if err := s.cache.Get(ctx, studentID, &cached); err == nil {
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("stats cache read failed", zap.Int64("student_id", studentID), zap.Error(err))
		}
	}

	exams, err := s.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	stats := ComputeExamStats(exams)

	if s.cache != nil {
		if err := s.cache.Set(ctx, studentID, stats, s.cacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Int64("student_id", studentID), zap.Error(err))
		}
	}
	return &stats, nil
}

// checkDirection enforces that the discipline belongs to the same direction
// as the student's group.
func (s *ExamService) checkDirection(ctx context.Context, disciplineID int64, student *models.StudentView) error {
	discipline, err := s.disciplines.FindByID(ctx, disciplineID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrConstraint, "discipline does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load discipline")
	}
	if discipline.Direction != student.Direction {
		return appErrors.Validation([]string{"discipline is not offered for the student's direction"})
	}
	return nil
}
