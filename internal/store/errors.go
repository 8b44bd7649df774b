package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrConflict matches every uniqueness violation surfaced by the store.
var ErrConflict = errors.New("conflict")

// ConflictError reports a uniqueness violation on a named field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

// Is lets errors.Is(err, ErrConflict) match any ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ErrDuplicateSerial is returned when an item serial is already taken.
var ErrDuplicateSerial = &ConflictError{Field: "serial"}

// isUniqueViolation reports whether err is a SQLite uniqueness violation on
// the given table.column.
func isUniqueViolation(err error, column string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return strings.Contains(se.Error(), column)
	}
	return false
}
