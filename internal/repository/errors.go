// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.  For example, ErrNotFound
// indicates that an identifier does not resolve to a row, while
// ErrConflict signals a unique-key violation such as a second student
// for the same application.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by identifier or key yields no
// row.  Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a unique
// constraint.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a staff account already uses an email.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is the server error number for a unique-key clash.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows onto ErrNotFound and leaves other errors
// untouched.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
