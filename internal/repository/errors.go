package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error classes the repositories care about.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// IsForeignKeyViolation reports whether err stems from a referential
// integrity failure: a missing referenced row on insert, or a delete blocked
// by dependent rows.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqForeignKeyViolation
}

// IsUniqueViolation reports whether err stems from a unique constraint, such
// as a duplicate group number.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}
