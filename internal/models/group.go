package models

// Group is a study group sharing one field-of-study direction.
type Group struct {
	ID          int64  `db:"id" json:"id"`
	GroupNumber string `db:"group_number" json:"group_number"`
	Direction   string `db:"direction" json:"direction"`
}
