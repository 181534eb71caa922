// Package validation holds the pure field-level rules for each record type.
// Every function is side-effect free and returns an ordered list of
// human-readable messages, empty when the candidate is valid. Callers run
// these before touching storage and abort on any message.
package validation

import (
	"strings"
	"time"

	"github.com/unilab-dev/uni-records-api/internal/models"
)

// Student checks a candidate student record. The message order is fixed:
// last name, first name, group, gender, birth date.
func Student(s models.Student, now time.Time) []string {
	var errs []string
	if strings.TrimSpace(s.LastName) == "" {
		errs = append(errs, "last name is required")
	}
	if strings.TrimSpace(s.FirstName) == "" {
		errs = append(errs, "first name is required")
	}
	if s.GroupID <= 0 {
		errs = append(errs, "group is required")
	}
	if s.Gender != models.GenderMale && s.Gender != models.GenderFemale {
		errs = append(errs, "gender must be male or female")
	}
	switch {
	case s.BirthDate.IsZero():
		errs = append(errs, "birth date is required")
	case afterToday(s.BirthDate, now):
		errs = append(errs, "birth date must not be in the future")
	}
	return errs
}

// Exam checks a candidate exam record. The message order is fixed:
// discipline, exam date, grade, teacher.
func Exam(e models.Exam, now time.Time) []string {
	var errs []string
	if e.DisciplineID <= 0 {
		errs = append(errs, "discipline is required")
	}
	switch {
	case e.ExamDate.IsZero():
		errs = append(errs, "exam date is required")
	case afterToday(e.ExamDate, now):
		errs = append(errs, "exam date must not be in the future")
	}
	if e.Grade < models.GradeMin || e.Grade > models.GradeMax {
		errs = append(errs, "grade must be one of 2, 3, 4, 5")
	}
	if strings.TrimSpace(e.Teacher) == "" {
		errs = append(errs, "teacher is required")
	}
	return errs
}

// Group checks a candidate group record.
func Group(g models.Group) []string {
	var errs []string
	if strings.TrimSpace(g.GroupNumber) == "" {
		errs = append(errs, "group number is required")
	}
	if strings.TrimSpace(g.Direction) == "" {
		errs = append(errs, "direction is required")
	}
	return errs
}

// Discipline checks a candidate discipline record.
func Discipline(d models.Discipline) []string {
	var errs []string
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, "name is required")
	}
	if d.Course <= 0 {
		errs = append(errs, "course must be a positive number")
	}
	if d.Semester <= 0 {
		errs = append(errs, "semester must be a positive number")
	}
	if strings.TrimSpace(d.Direction) == "" {
		errs = append(errs, "direction is required")
	}
	return errs
}

// afterToday reports whether t falls strictly after the calendar day of now.
// Comparing at day granularity keeps a same-day exam valid regardless of the
// time-of-day either value carries.
func afterToday(t, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.After(today)
}
