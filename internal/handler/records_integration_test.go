package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilab-dev/uni-records-api/internal/models"
	"github.com/unilab-dev/uni-records-api/internal/service"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

// memDB is a small in-memory store shared by the repository stand-ins so the
// handlers and services run against the real wiring without Postgres.
type memDB struct {
	groups      map[int64]models.Group
	disciplines map[int64]models.Discipline
	students    map[int64]models.StudentView
	exams       map[int64]models.ExamView
	seq         int64
}

func newMemDB() *memDB {
	db := &memDB{
		groups:      make(map[int64]models.Group),
		disciplines: make(map[int64]models.Discipline),
		students:    make(map[int64]models.StudentView),
		exams:       make(map[int64]models.ExamView),
	}
	db.groups[1] = models.Group{ID: 1, GroupNumber: "IS-21", Direction: "Software Engineering"}
	db.groups[2] = models.Group{ID: 2, GroupNumber: "AM-21", Direction: "Applied Mathematics"}
	db.disciplines[1] = models.Discipline{ID: 1, Name: "Algorithms", Course: 2, Semester: 3, Direction: "Software Engineering"}
	db.disciplines[2] = models.Discipline{ID: 2, Name: "Number Theory", Course: 1, Semester: 2, Direction: "Applied Mathematics"}
	db.seq = 2
	return db
}

func (db *memDB) nextID() int64 {
	db.seq++
	return db.seq
}

type memGroups struct{ db *memDB }

func (m *memGroups) List(ctx context.Context) ([]models.Group, error) {
	out := make([]models.Group, 0, len(m.db.groups))
	for _, g := range m.db.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupNumber < out[j].GroupNumber })
	return out, nil
}

func (m *memGroups) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	g, ok := m.db.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (m *memGroups) Create(ctx context.Context, group *models.Group) error {
	for _, g := range m.db.groups {
		if g.GroupNumber == group.GroupNumber {
			return &pq.Error{Code: "23505"}
		}
	}
	group.ID = m.db.nextID()
	m.db.groups[group.ID] = *group
	return nil
}

func (m *memGroups) Delete(ctx context.Context, id int64) error {
	if _, ok := m.db.groups[id]; !ok {
		return sql.ErrNoRows
	}
	for _, s := range m.db.students {
		if s.GroupID == id {
			return &pq.Error{Code: "23503"}
		}
	}
	delete(m.db.groups, id)
	return nil
}

type memDisciplines struct{ db *memDB }

func (m *memDisciplines) List(ctx context.Context, direction string) ([]models.Discipline, error) {
	out := make([]models.Discipline, 0, len(m.db.disciplines))
	for _, d := range m.db.disciplines {
		if direction != "" && d.Direction != direction {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memDisciplines) FindByID(ctx context.Context, id int64) (*models.Discipline, error) {
	d, ok := m.db.disciplines[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (m *memDisciplines) Create(ctx context.Context, discipline *models.Discipline) error {
	discipline.ID = m.db.nextID()
	m.db.disciplines[discipline.ID] = *discipline
	return nil
}

type memStudents struct{ db *memDB }

func (m *memStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, error) {
	out := make([]models.StudentView, 0, len(m.db.students))
	for _, s := range m.db.students {
		if filter.GroupNumber != "" && s.GroupNumber != filter.GroupNumber {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(s.LastName), needle) &&
				!strings.Contains(strings.ToLower(s.FirstName), needle) {
				continue
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupNumber != out[j].GroupNumber {
			return out[i].GroupNumber < out[j].GroupNumber
		}
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (m *memStudents) FindByID(ctx context.Context, id int64) (*models.StudentView, error) {
	s, ok := m.db.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *memStudents) Create(ctx context.Context, student *models.Student) error {
	group, ok := m.db.groups[student.GroupID]
	if !ok {
		return &pq.Error{Code: "23503"}
	}
	student.ID = m.db.nextID()
	m.db.students[student.ID] = models.StudentView{
		Student:     *student,
		GroupNumber: group.GroupNumber,
		Direction:   group.Direction,
	}
	return nil
}

func (m *memStudents) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.db.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	group, ok := m.db.groups[student.GroupID]
	if !ok {
		return &pq.Error{Code: "23503"}
	}
	m.db.students[student.ID] = models.StudentView{
		Student:     *student,
		GroupNumber: group.GroupNumber,
		Direction:   group.Direction,
	}
	return nil
}

func (m *memStudents) Delete(ctx context.Context, id int64) error {
	if _, ok := m.db.students[id]; !ok {
		return sql.ErrNoRows
	}
	for examID, e := range m.db.exams {
		if e.StudentID == id {
			delete(m.db.exams, examID)
		}
	}
	delete(m.db.students, id)
	return nil
}

type memExams struct{ db *memDB }

func (m *memExams) ListByStudent(ctx context.Context, studentID int64) ([]models.ExamView, error) {
	out := make([]models.ExamView, 0)
	for _, e := range m.db.exams {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExamDate.Equal(out[j].ExamDate) {
			return out[i].ExamDate.After(out[j].ExamDate)
		}
		if out[i].Course != out[j].Course {
			return out[i].Course < out[j].Course
		}
		return out[i].Semester < out[j].Semester
	})
	return out, nil
}

func (m *memExams) FindByID(ctx context.Context, id int64) (*models.ExamView, error) {
	e, ok := m.db.exams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (m *memExams) Create(ctx context.Context, exam *models.Exam) error {
	d, ok := m.db.disciplines[exam.DisciplineID]
	if !ok {
		return &pq.Error{Code: "23503"}
	}
	exam.ID = m.db.nextID()
	m.db.exams[exam.ID] = models.ExamView{Exam: *exam, DisciplineName: d.Name, Course: d.Course, Semester: d.Semester}
	return nil
}

func (m *memExams) Update(ctx context.Context, exam *models.Exam) error {
	if _, ok := m.db.exams[exam.ID]; !ok {
		return sql.ErrNoRows
	}
	d, ok := m.db.disciplines[exam.DisciplineID]
	if !ok {
		return &pq.Error{Code: "23503"}
	}
	m.db.exams[exam.ID] = models.ExamView{Exam: *exam, DisciplineName: d.Name, Course: d.Course, Semester: d.Semester}
	return nil
}

func (m *memExams) Delete(ctx context.Context, id int64) error {
	if _, ok := m.db.exams[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.db.exams, id)
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newMemDB()
	students := &memStudents{db: db}
	exams := &memExams{db: db}

	groupSvc := service.NewGroupService(&memGroups{db: db}, nil)
	studentSvc := service.NewStudentService(students, nil, nil)
	disciplineSvc := service.NewDisciplineService(&memDisciplines{db: db}, nil)
	examSvc := service.NewExamService(exams, students, &memDisciplines{db: db}, nil, time.Minute, nil)
	exportSvc := service.NewExportService(students, examSvc, nil)

	groupHandler := NewGroupHandler(groupSvc)
	studentHandler := NewStudentHandler(studentSvc)
	disciplineHandler := NewDisciplineHandler(disciplineSvc)
	examHandler := NewExamHandler(examSvc, exportSvc)

	r := gin.New()
	api := r.Group("/api/v1")
	{
		api.GET("/groups", groupHandler.List)
		api.POST("/groups", groupHandler.Create)
		api.DELETE("/groups/:id", groupHandler.Delete)

		api.GET("/disciplines", disciplineHandler.List)
		api.POST("/disciplines", disciplineHandler.Create)

		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)

		api.GET("/students/:id/exams", examHandler.ListForStudent)
		api.GET("/students/:id/exams/stats", examHandler.Stats)
		api.GET("/students/:id/exams/export", examHandler.Export)

		api.POST("/exams", examHandler.Create)
		api.GET("/exams/:id", examHandler.Get)
		api.PUT("/exams/:id", examHandler.Update)
		api.DELETE("/exams/:id", examHandler.Delete)
	}
	return r
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func createStudent(t *testing.T, r *gin.Engine, lastName string, groupID int64) models.StudentView {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/v1/students", map[string]interface{}{
		"last_name":  lastName,
		"first_name": "Petr",
		"group_id":   groupID,
		"gender":     "male",
		"birth_date": "2001-05-10T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var student models.StudentView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &student))
	return student
}

func createExam(t *testing.T, r *gin.Engine, studentID, disciplineID int64, date string, grade int) models.ExamView {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/v1/exams", map[string]interface{}{
		"student_id":    studentID,
		"discipline_id": disciplineID,
		"exam_date":     date,
		"grade":         grade,
		"teacher":       "Smirnov",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var exam models.ExamView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &exam))
	return exam
}

func TestStudentLifecycle(t *testing.T) {
	r := newTestRouter(t)

	student := createStudent(t, r, "Ivanov", 1)
	assert.Equal(t, "IS-21", student.GroupNumber)
	assert.Equal(t, "Software Engineering", student.Direction)

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/v1/students/%d", student.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/v1/students/%d", student.ID), map[string]interface{}{
		"last_name":  "Petrov",
		"first_name": "Petr",
		"group_id":   2,
		"gender":     "male",
		"birth_date": "2001-05-10T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.StudentView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &updated))
	assert.Equal(t, "Petrov", updated.LastName)
	assert.Equal(t, "AM-21", updated.GroupNumber)

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", student.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/v1/students/%d", student.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentValidationResponse(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodPost, "/api/v1/students", map[string]interface{}{
		"gender": "unknown",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, []string{
		"last name is required",
		"first name is required",
		"group is required",
		"gender must be male or female",
		"birth date is required",
	}, env.Error.Fields)
}

func TestStudentListFilters(t *testing.T) {
	r := newTestRouter(t)

	createStudent(t, r, "Ivanov", 1)
	createStudent(t, r, "Petrov", 1)
	w := doRequest(t, r, http.MethodPost, "/api/v1/students", map[string]interface{}{
		"last_name":  "Sidorova",
		"first_name": "Anna",
		"group_id":   2,
		"gender":     "female",
		"birth_date": "2002-03-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/v1/students?group=IS-21", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var students []models.StudentView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &students))
	require.Len(t, students, 2)
	assert.Equal(t, "Ivanov", students[0].LastName)
	assert.Equal(t, "Petrov", students[1].LastName)

	w = doRequest(t, r, http.MethodGet, "/api/v1/students?search=sido", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &students))
	require.Len(t, students, 1)
	assert.Equal(t, "Sidorova", students[0].LastName)
}

func TestStudentBadPathID(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/v1/students/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestExamFlowAndStats(t *testing.T) {
	r := newTestRouter(t)

	student := createStudent(t, r, "Ivanov", 1)
	createExam(t, r, student.ID, 1, "2024-01-15T00:00:00Z", 5)
	createExam(t, r, student.ID, 1, "2023-06-10T00:00:00Z", 4)

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/exams", student.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var exams []models.ExamView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &exams))
	require.Len(t, exams, 2)
	// newest first
	assert.Equal(t, 5, exams[0].Grade)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/exams/stats", student.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.ExamStats
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &stats))
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 4.5, stats.AverageGrade)
}

func TestExamDirectionMismatchRejected(t *testing.T) {
	r := newTestRouter(t)

	student := createStudent(t, r, "Ivanov", 1)
	w := doRequest(t, r, http.MethodPost, "/api/v1/exams", map[string]interface{}{
		"student_id":    student.ID,
		"discipline_id": 2,
		"exam_date":     "2024-01-15T00:00:00Z",
		"grade":         4,
		"teacher":       "Orlova",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, []string{"discipline is not offered for the student's direction"}, env.Error.Fields)
}

func TestExportDownload(t *testing.T) {
	r := newTestRouter(t)

	student := createStudent(t, r, "Ivanov", 1)
	createExam(t, r, student.ID, 1, "2024-01-15T00:00:00Z", 5)

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/exams/export?format=csv", student.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("record_sheet_%d.csv", student.ID))
	assert.Contains(t, w.Body.String(), "Algorithms")

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/exams/export?format=xlsx", student.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroupDeleteRestricted(t *testing.T) {
	r := newTestRouter(t)

	student := createStudent(t, r, "Ivanov", 1)

	w := doRequest(t, r, http.MethodDelete, "/api/v1/groups/1", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONSTRAINT_VIOLATION", env.Error.Code)

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", student.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/api/v1/groups/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDisciplineListByDirection(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/v1/disciplines?direction=Software+Engineering", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var disciplines []models.Discipline
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &disciplines))
	require.Len(t, disciplines, 1)
	assert.Equal(t, "Algorithms", disciplines[0].Name)
}
