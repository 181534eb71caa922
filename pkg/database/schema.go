package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the four record tables. Referential integrity is
// declared at the schema level: a group cannot be dropped while students
// reference it, and removing a student takes its exams with it.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS groups (
        id SERIAL PRIMARY KEY,
        group_number TEXT NOT NULL UNIQUE,
        direction TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS students (
        id SERIAL PRIMARY KEY,
        last_name TEXT NOT NULL,
        first_name TEXT NOT NULL,
        middle_name TEXT NOT NULL DEFAULT '',
        group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE RESTRICT,
        gender TEXT NOT NULL CHECK (gender IN ('male', 'female')),
        birth_date DATE NOT NULL,
        email TEXT NOT NULL DEFAULT '',
        phone TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE TABLE IF NOT EXISTS disciplines (
        id SERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        course INTEGER NOT NULL CHECK (course > 0),
        semester INTEGER NOT NULL CHECK (semester > 0),
        direction TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS exams (
        id SERIAL PRIMARY KEY,
        student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
        discipline_id INTEGER NOT NULL REFERENCES disciplines(id) ON DELETE RESTRICT,
        exam_date DATE NOT NULL,
        grade INTEGER NOT NULL CHECK (grade BETWEEN 2 AND 5),
        teacher TEXT NOT NULL,
        room TEXT NOT NULL DEFAULT '',
        notes TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE INDEX IF NOT EXISTS idx_students_group_id ON students(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_students_last_name ON students(last_name)`,
	`CREATE INDEX IF NOT EXISTS idx_exams_student_id ON exams(student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_disciplines_direction ON disciplines(direction)`,
}

// InitSchema creates the record tables if they do not exist yet. Running it
// against an already initialized database is a no-op.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Seed inserts a starter set of groups and disciplines when the store is
// empty. Groups and disciplines are reference data entered once; students and
// exams are always created interactively.
func Seed(ctx context.Context, db *sqlx.DB) error {
	var groupCount int
	if err := db.GetContext(ctx, &groupCount, "SELECT COUNT(*) FROM groups"); err != nil {
		return fmt.Errorf("count groups: %w", err)
	}
	if groupCount > 0 {
		return nil
	}

	groups := []struct {
		Number    string
		Direction string
	}{
		{"IS-21", "Software Engineering"},
		{"IS-22", "Software Engineering"},
		{"AM-21", "Applied Mathematics"},
	}
	for _, g := range groups {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO groups (group_number, direction) VALUES ($1, $2)", g.Number, g.Direction); err != nil {
			return fmt.Errorf("seed group %s: %w", g.Number, err)
		}
	}

	disciplines := []struct {
		Name      string
		Course    int
		Semester  int
		Direction string
	}{
		{"Programming Fundamentals", 1, 1, "Software Engineering"},
		{"Discrete Mathematics", 1, 2, "Software Engineering"},
		{"Algorithms and Data Structures", 2, 3, "Software Engineering"},
		{"Databases", 2, 4, "Software Engineering"},
		{"Mathematical Analysis", 1, 1, "Applied Mathematics"},
		{"Probability Theory", 2, 3, "Applied Mathematics"},
	}
	for _, d := range disciplines {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO disciplines (name, course, semester, direction) VALUES ($1, $2, $3, $4)",
			d.Name, d.Course, d.Semester, d.Direction); err != nil {
			return fmt.Errorf("seed discipline %s: %w", d.Name, err)
		}
	}

	return nil
}
