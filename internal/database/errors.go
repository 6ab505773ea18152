package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/CyberPidgi/rentiful/internal/apperr"
)

// PostgreSQL error codes
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// classify maps driver and gorm errors to application errors. Anything
// unrecognized is wrapped with op and returned as is.
func classify(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return &apperr.Error{Kind: apperr.KindConflict, Message: entity + " already exists", Err: err}
		case pqForeignKeyViolation:
			return &apperr.Error{Kind: apperr.KindNotFound, Message: "referenced record not found", Err: err}
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperr.Error{Kind: apperr.KindConflict, Message: entity + " already exists", Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// transaction runs fn in a transaction. Preconditions reported by fn as
// application errors pass through; every other failure means the
// transaction was rolled back and is reported as such.
func transaction(db *gorm.DB, op string, fn func(tx *gorm.DB) error) error {
	err := db.Transaction(fn)
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.TransactionFailure(op, err)
}
