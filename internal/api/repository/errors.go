package repository

import (
	"github.com/glebarez/go-sqlite"
	"github.com/pkg/errors"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrDuplicate is returned when an insert or update violates a uniqueness
// constraint, e.g. a second user with the same username.
var ErrDuplicate = errors.New("duplicate record")

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// wrapWrite wraps a failed write, mapping uniqueness violations to ErrDuplicate.
// The returned error carries a stack trace.
func wrapWrite(err error, msg string) error {
	if isUniqueViolation(err) {
		return errors.Wrap(ErrDuplicate, msg)
	}
	return errors.Wrap(err, msg)
}
