package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilab-dev/uni-records-api/internal/models"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

type mockDisciplineRepo struct {
	disciplines map[int64]models.Discipline
	nextID      int64
}

func newMockDisciplineRepo() *mockDisciplineRepo {
	return &mockDisciplineRepo{disciplines: make(map[int64]models.Discipline)}
}

func (m *mockDisciplineRepo) List(ctx context.Context, direction string) ([]models.Discipline, error) {
	out := make([]models.Discipline, 0, len(m.disciplines))
	for _, d := range m.disciplines {
		if direction != "" && d.Direction != direction {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDisciplineRepo) FindByID(ctx context.Context, id int64) (*models.Discipline, error) {
	d, ok := m.disciplines[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (m *mockDisciplineRepo) Create(ctx context.Context, discipline *models.Discipline) error {
	m.nextID++
	discipline.ID = m.nextID
	m.disciplines[discipline.ID] = *discipline
	return nil
}

func TestDisciplineServiceCreate(t *testing.T) {
	svc := NewDisciplineService(newMockDisciplineRepo(), nil)

	discipline, err := svc.Create(context.Background(), CreateDisciplineRequest{
		Name:      "Algorithms",
		Course:    2,
		Semester:  3,
		Direction: "Software Engineering",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), discipline.ID)
	assert.Equal(t, "Algorithms", discipline.Name)
}

func TestDisciplineServiceCreateValidation(t *testing.T) {
	svc := NewDisciplineService(newMockDisciplineRepo(), nil)

	_, err := svc.Create(context.Background(), CreateDisciplineRequest{Name: "Algorithms", Course: -1})

	e := asAppError(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, e.Code)
	assert.Equal(t, []string{"course must be a positive number", "semester must be a positive number", "direction is required"}, e.Fields)
}

func TestDisciplineServiceListByDirection(t *testing.T) {
	repo := newMockDisciplineRepo()
	svc := NewDisciplineService(repo, nil)

	for _, req := range []CreateDisciplineRequest{
		{Name: "Algorithms", Course: 2, Semester: 3, Direction: "Software Engineering"},
		{Name: "Number Theory", Course: 1, Semester: 2, Direction: "Applied Mathematics"},
	} {
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	se, err := svc.List(context.Background(), "Software Engineering")
	require.NoError(t, err)
	require.Len(t, se, 1)
	assert.Equal(t, "Algorithms", se[0].Name)
}
