package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/unilab-dev/uni-records-api/internal/models"
	"github.com/unilab-dev/uni-records-api/internal/repository"
	"github.com/unilab-dev/uni-records-api/internal/validation"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context) ([]models.Group, error)
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id int64) error
}

// CreateGroupRequest holds payload for creating groups.
type CreateGroupRequest struct {
	GroupNumber string `json:"group_number"`
	Direction   string `json:"direction"`
}

// GroupService handles study-group use-cases.
type GroupService struct {
	repo   groupRepository
	logger *zap.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(repo groupRepository, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, logger: logger}
}

// List returns all groups ordered by number.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list groups")
	}
	return groups, nil
}

// Create registers a new group.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	group := models.Group{
		GroupNumber: req.GroupNumber,
		Direction:   req.Direction,
	}
	if msgs := validation.Group(group); len(msgs) > 0 {
		return nil, appErrors.Validation(msgs)
	}
	if err := s.repo.Create(ctx, &group); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConstraint, "group number already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create group")
	}
	return &group, nil
}

// Delete removes a group. The delete is rejected while students reference it.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConstraint, "group still has students assigned")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete group")
	}
	return nil
}
