package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"smartvote/internal/domain"
)

const (
	codeUniqueViolation       pq.ErrorCode  = "23505"
	codeInvalidTextRepr       pq.ErrorCode  = "22P02"
	codeSerializationFailure  pq.ErrorCode  = "40001"
	codeDeadlockDetected      pq.ErrorCode  = "40P01"
	classConnection           pq.ErrorClass = "08"
	classOperatorIntervention pq.ErrorClass = "57"
)

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func pqCode(err error) (pq.ErrorCode, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, true
	}
	return "", false
}

func isUniqueViolation(err error) bool {
	code, ok := pqCode(err)
	return ok && code == codeUniqueViolation
}

func isInvalidText(err error) bool {
	code, ok := pqCode(err)
	return ok && code == codeInvalidTextRepr
}

// isTransient reports failures that say nothing about the request itself:
// the store could not be reached, timed out, or aborted the transaction.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if code, ok := pqCode(err); ok {
		switch {
		case code.Class() == classConnection, code.Class() == classOperatorIntervention:
			return true
		case code == codeSerializationFailure, code == codeDeadlockDetected:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// storeError wraps err for op, tagging transient failures with domain.ErrUnavailable.
// Domain sentinels pass through unchanged.
func storeError(op string, err error) error {
	for _, sentinel := range []error{
		domain.ErrAlreadyRegistered,
		domain.ErrNotFound,
		domain.ErrForbidden,
		domain.ErrEventNotFound,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
