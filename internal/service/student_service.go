package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unilab-dev/uni-records-api/internal/models"
	"github.com/unilab-dev/uni-records-api/internal/repository"
	"github.com/unilab-dev/uni-records-api/internal/validation"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, error)
	FindByID(ctx context.Context, id int64) (*models.StudentView, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// StudentRequest holds payload for creating and updating students. Updates
// are full-record replaces, so the same shape serves both.
type StudentRequest struct {
	LastName   string    `json:"last_name"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name"`
	GroupID    int64     `json:"group_id"`
	Gender     string    `json:"gender"`
	BirthDate  time.Time `json:"birth_date"`
	Email      string    `json:"email" validate:"omitempty,email"`
	Phone      string    `json:"phone"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// List returns denormalized student views matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list students")
	}
	return students, nil
}

// Get returns the denormalized student view, or NotFound.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentView, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student after running the field rules.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.StudentView, error) {
	student, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConstraint, "group does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create student")
	}
	return s.Get(ctx, student.ID)
}

// Update replaces an existing student record in full.
func (s *StudentService) Update(ctx context.Context, id int64, req StudentRequest) (*models.StudentView, error) {
	student, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	student.ID = id
	if err := s.repo.Update(ctx, student); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConstraint, "group does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update student")
	}
	return s.Get(ctx, id)
}

// Delete removes a student and, atomically, every exam the student owns.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete student")
	}
	return nil
}

// validate applies the pure field rules first so their ordered messages stay
// authoritative, then the struct-level format checks.
func (s *StudentService) validate(req StudentRequest) (*models.Student, error) {
	student := &models.Student{
		LastName:   req.LastName,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		GroupID:    req.GroupID,
		Gender:     req.Gender,
		BirthDate:  req.BirthDate,
		Email:      req.Email,
		Phone:      req.Phone,
	}
	if msgs := validation.Student(*student, s.now()); len(msgs) > 0 {
		return nil, appErrors.Validation(msgs)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation([]string{"email must be a valid address"})
	}
	return student, nil
}
