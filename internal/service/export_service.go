package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/unilab-dev/uni-records-api/internal/models"
	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
	"github.com/unilab-dev/uni-records-api/pkg/export"
)

// Export formats for student record sheets.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var recordSheetHeaders = []string{"Discipline", "Course", "Semester", "Exam Date", "Grade", "Teacher", "Room"}

// ExportResult carries rendered record-sheet bytes with HTTP metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

type studentExamsLister interface {
	ListForStudent(ctx context.Context, studentID int64) ([]models.ExamView, error)
}

// ExportService renders a student's exam record sheet as CSV or PDF.
type ExportService struct {
	students studentReader
	exams    studentExamsLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(students studentReader, exams studentExamsLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students: students,
		exams:    exams,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// RecordSheet builds and renders the record sheet for one student.
func (s *ExportService) RecordSheet(ctx context.Context, studentID int64, format string) (*ExportResult, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	exams, err := s.exams.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: recordSheetHeaders}
	for _, exam := range exams {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Discipline": exam.DisciplineName,
			"Course":     strconv.Itoa(exam.Course),
			"Semester":   strconv.Itoa(exam.Semester),
			"Exam Date":  exam.ExamDate.Format("2006-01-02"),
			"Grade":      strconv.Itoa(exam.Grade),
			"Teacher":    exam.Teacher,
			"Room":       exam.Room,
		})
	}

	name := strings.TrimSpace(fmt.Sprintf("%s %s", student.LastName, student.FirstName))
	base := fmt.Sprintf("record_sheet_%d", studentID)

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to render csv")
		}
		return &ExportResult{FileName: base + ".csv", ContentType: "text/csv", Content: content}, nil
	case ExportFormatPDF:
		subtitle := fmt.Sprintf("%s, group %s (%s)", name, student.GroupNumber, student.Direction)
		content, err := s.pdf.Render(dataset, "Exam Record Sheet", subtitle)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to render pdf")
		}
		return &ExportResult{FileName: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Validation([]string{"format must be csv or pdf"})
	}
}
