package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilab-dev/uni-records-api/internal/models"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[int64]models.StudentView
	groups   map[int64]models.Group
	nextID   int64
	listErr  error
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		students: make(map[int64]models.StudentView),
		groups: map[int64]models.Group{
			1: {ID: 1, GroupNumber: "IS-21", Direction: "Software Engineering"},
			2: {ID: 2, GroupNumber: "AM-21", Direction: "Applied Mathematics"},
		},
	}
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.StudentView, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.StudentView, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	group, ok := m.groups[student.GroupID]
	if !ok {
		return &pq.Error{Code: "23503"}
	}
	m.nextID++
	student.ID = m.nextID
	m.students[student.ID] = models.StudentView{
		Student:     *student,
		GroupNumber: group.GroupNumber,
		Direction:   group.Direction,
	}
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	group, ok := m.groups[student.GroupID]
	if !ok {
		return &pq.Error{Code: "23503"}
	}
	m.students[student.ID] = models.StudentView{
		Student:     *student,
		GroupNumber: group.GroupNumber,
		Direction:   group.Direction,
	}
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	return nil
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newStudentService(repo *mockStudentRepo) *StudentService {
	svc := NewStudentService(repo, nil, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validStudentRequest() StudentRequest {
	return StudentRequest{
		LastName:  "Ivanov",
		FirstName: "Petr",
		GroupID:   1,
		Gender:    models.GenderMale,
		BirthDate: time.Date(2001, 5, 10, 0, 0, 0, 0, time.UTC),
		Email:     "ivanov@example.com",
	}
}

func asAppError(t *testing.T, err error) *appErrors.Error {
	t.Helper()
	var e *appErrors.Error
	require.True(t, errors.As(err, &e), "expected typed error, got %v", err)
	return e
}

func TestStudentServiceCreate(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newStudentService(repo)

	view, err := svc.Create(context.Background(), validStudentRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1), view.ID)
	assert.Equal(t, "Ivanov", view.LastName)
	assert.Equal(t, "IS-21", view.GroupNumber)
	assert.Equal(t, "Software Engineering", view.Direction)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc := newStudentService(newMockStudentRepo())

	req := StudentRequest{Gender: "unknown", BirthDate: testNow.AddDate(1, 0, 0)}
	_, err := svc.Create(context.Background(), req)

	e := asAppError(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, e.Code)
	assert.Equal(t, []string{
		"last name is required",
		"first name is required",
		"group is required",
		"gender must be male or female",
		"birth date must not be in the future",
	}, e.Fields)
}

func TestStudentServiceCreateBadEmail(t *testing.T) {
	svc := newStudentService(newMockStudentRepo())

	req := validStudentRequest()
	req.Email = "not-an-address"
	_, err := svc.Create(context.Background(), req)

	e := asAppError(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, e.Code)
	assert.Equal(t, []string{"email must be a valid address"}, e.Fields)
}

func TestStudentServiceCreateUnknownGroup(t *testing.T) {
	svc := newStudentService(newMockStudentRepo())

	req := validStudentRequest()
	req.GroupID = 99
	_, err := svc.Create(context.Background(), req)

	e := asAppError(t, err)
	assert.Equal(t, appErrors.ErrConstraint.Code, e.Code)
	assert.Equal(t, "group does not exist", e.Message)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := newStudentService(newMockStudentRepo())

	_, err := svc.Get(context.Background(), 42)

	e := asAppError(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, e.Code)
	assert.Equal(t, "student not found", e.Message)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newStudentService(repo)

	created, err := svc.Create(context.Background(), validStudentRequest())
	require.NoError(t, err)

	req := validStudentRequest()
	req.LastName = "Petrov"
	req.GroupID = 2

	updated, err := svc.Update(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Petrov", updated.LastName)
	assert.Equal(t, "AM-21", updated.GroupNumber)
}

func TestStudentServiceUpdateNotFound(t *testing.T) {
	svc := newStudentService(newMockStudentRepo())

	_, err := svc.Update(context.Background(), 42, validStudentRequest())

	e := asAppError(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, e.Code)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newStudentService(repo)

	created, err := svc.Create(context.Background(), validStudentRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	e := asAppError(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, e.Code)
}

func TestStudentServiceDeleteNotFound(t *testing.T) {
	svc := newStudentService(newMockStudentRepo())

	err := svc.Delete(context.Background(), 42)

	e := asAppError(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, e.Code)
}
