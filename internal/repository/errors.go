// Package repository holds the MySQL and in-memory persistence for users,
// tasks and revoked refresh tokens. The sentinel values below let higher
// layers tell failure scenarios apart without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when the unique email constraint rejects
	// an insert.
	ErrEmailExists = errors.New("email already exists")
	// ErrTaskNotFound is returned when no task has the given identifier.
	ErrTaskNotFound = errors.New("task not found")
	// ErrDuplicateTaskID is returned when a task identifier is already taken.
	ErrDuplicateTaskID = errors.New("task id already exists")
	// ErrUnknownOwner is returned when a task references a user that does
	// not exist.
	ErrUnknownOwner = errors.New("task owner does not exist")
)

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicateKey(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }

func isMissingReference(err error) bool { return mysqlErrNumber(err) == mysqlNoReferencedRow }
