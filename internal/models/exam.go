package models

import "time"

// Grade bounds; only integer grades 2 through 5 are persisted.
const (
	GradeMin = 2
	GradeMax = 5
)

// Exam is a single exam outcome owned by a student.
type Exam struct {
	ID           int64     `db:"id" json:"id"`
	StudentID    int64     `db:"student_id" json:"student_id"`
	DisciplineID int64     `db:"discipline_id" json:"discipline_id"`
	ExamDate     time.Time `db:"exam_date" json:"exam_date"`
	Grade        int       `db:"grade" json:"grade"`
	Teacher      string    `db:"teacher" json:"teacher"`
	Room         string    `db:"room" json:"room,omitempty"`
	Notes        string    `db:"notes" json:"notes,omitempty"`
}

// ExamView is the denormalized exam record joined with its discipline.
type ExamView struct {
	Exam
	DisciplineName string `db:"discipline_name" json:"discipline_name"`
	Course         int    `db:"course" json:"course"`
	Semester       int    `db:"semester" json:"semester"`
}

// ExamStats summarises a student's exam record: total count, arithmetic mean
// of grades rounded to two decimals, and a count per grade band.
type ExamStats struct {
	Count        int         `json:"count"`
	AverageGrade float64     `json:"average_grade"`
	GradeBands   map[int]int `json:"grade_bands"`
}
