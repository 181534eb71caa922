package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/unilab-dev/uni-records-api/internal/models"
	"github.com/unilab-dev/uni-records-api/internal/validation"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

type disciplineRepository interface {
	List(ctx context.Context, direction string) ([]models.Discipline, error)
	FindByID(ctx context.Context, id int64) (*models.Discipline, error)
	Create(ctx context.Context, discipline *models.Discipline) error
}

// CreateDisciplineRequest holds payload for creating disciplines.
type CreateDisciplineRequest struct {
	Name      string `json:"name"`
	Course    int    `json:"course"`
	Semester  int    `json:"semester"`
	Direction string `json:"direction"`
}

// DisciplineService handles discipline use-cases.
type DisciplineService struct {
	repo   disciplineRepository
	logger *zap.Logger
}

// NewDisciplineService constructs the discipline service.
func NewDisciplineService(repo disciplineRepository, logger *zap.Logger) *DisciplineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisciplineService{repo: repo, logger: logger}
}

// List returns disciplines, optionally restricted to one direction so the
// caller can offer only disciplines matching a student's group.
func (s *DisciplineService) List(ctx context.Context, direction string) ([]models.Discipline, error) {
	disciplines, err := s.repo.List(ctx, direction)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list disciplines")
	}
	return disciplines, nil
}

// Create registers a new discipline.
func (s *DisciplineService) Create(ctx context.Context, req CreateDisciplineRequest) (*models.Discipline, error) {
	discipline := models.Discipline{
		Name:      req.Name,
		Course:    req.Course,
		Semester:  req.Semester,
		Direction: req.Direction,
	}
	if msgs := validation.Discipline(discipline); len(msgs) > 0 {
		return nil, appErrors.Validation(msgs)
	}
	if err := s.repo.Create(ctx, &discipline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create discipline")
	}
	return &discipline, nil
}
