package models

// Discipline is a course unit offered to groups of a matching direction.
type Discipline struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Course    int    `db:"course" json:"course"`
	Semester  int    `db:"semester" json:"semester"`
	Direction string `db:"direction" json:"direction"`
}
