package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrUnsupported = errors.New("db: unsupported driver")
)

// Op constants name the failing operation for error context.
const (
	OpOpen    = "OPEN"
	OpPing    = "PING"
	OpMigrate = "MIGRATE"
	OpQuery   = "QUERY"
	OpExec    = "EXEC"
	OpBegin   = "BEGIN"
	OpCommit  = "COMMIT"
	OpGet     = "GET"
	OpSet     = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
