package repository

import (
	"errors"
	"strings"
)

// Sentinel errors returned by all repositories. Callers branch on these
// with errors.Is instead of inspecting driver errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidInput   = errors.New("invalid input")
)

// isDuplicateKeyError reports whether err is a unique constraint violation.
// Matched textually so it works for both PostgreSQL and the SQLite driver
// used in tests.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "23505") // PostgreSQL unique violation code
}
