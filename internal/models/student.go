package models

import "time"

// Gender values accepted for students.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Student represents a learner assigned to a group.
type Student struct {
	ID         int64     `db:"id" json:"id"`
	LastName   string    `db:"last_name" json:"last_name"`
	FirstName  string    `db:"first_name" json:"first_name"`
	MiddleName string    `db:"middle_name" json:"middle_name,omitempty"`
	GroupID    int64     `db:"group_id" json:"group_id"`
	Gender     string    `db:"gender" json:"gender"`
	BirthDate  time.Time `db:"birth_date" json:"birth_date"`
	Email      string    `db:"email" json:"email,omitempty"`
	Phone      string    `db:"phone" json:"phone,omitempty"`
}

// StudentFilter encapsulates the list filters. A zero value means no
// restriction; active filters combine with AND.
type StudentFilter struct {
	GroupNumber string
	Search      string
}

// StudentView is the denormalized student record joined with its group, so
// callers need no second lookup for display.
type StudentView struct {
	Student
	GroupNumber string `db:"group_number" json:"group_number"`
	Direction   string `db:"direction" json:"direction"`
}
