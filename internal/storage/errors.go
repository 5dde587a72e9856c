package storage

import (
	"errors"
	"fmt"
)

// PersistenceError reports a failure of the storage engine itself, as
// opposed to a missing row or a rejected request.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err is, or wraps, a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// fail logs the failed operation and returns it as a PersistenceError.
func (db *DB) fail(op string, err error, attrs ...any) error {
	args := append([]any{"op", op, "error", err}, attrs...)
	db.logger.Error("storage operation failed", args...)
	return &PersistenceError{Op: op, Err: err}
}
