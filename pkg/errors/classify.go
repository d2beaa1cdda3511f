package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorCode classifies a load failure.
type ErrorCode string

const (
	// Fatal codes abort the run.
	ErrConnectionFailure ErrorCode = "connection_failure"
	ErrSchemaFailure     ErrorCode = "schema_failure"
	ErrBankResolveFailed ErrorCode = "bank_resolve_failed"

	// Recoverable codes are absorbed at their originating layer.
	ErrRecordRejected     ErrorCode = "record_rejected"
	ErrChunkUpsertFailed  ErrorCode = "chunk_upsert_failed"
	ErrRecordUpsertFailed ErrorCode = "record_upsert_failed"
	ErrBankRaceConflict   ErrorCode = "bank_race_conflict"
)

// UniqueViolation is the SQLSTATE raised by a unique-constraint conflict.
const UniqueViolation = "23505"

// LoadError is a structured error for load failures.
type LoadError struct {
	Code     ErrorCode
	Stage    string
	RecordID string
	Cause    error
}

func (e *LoadError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s: %s: record %s: %v", e.Code, e.Stage, e.RecordID, e.Cause)
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Stage, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the error must abort the run.
func (e *LoadError) Fatal() bool {
	switch e.Code {
	case ErrConnectionFailure, ErrSchemaFailure, ErrBankResolveFailed:
		return true
	default:
		return false
	}
}

// NewLoadError wraps err with a code and the stage it occurred in.
func NewLoadError(code ErrorCode, stage string, err error) *LoadError {
	return &LoadError{Code: code, Stage: stage, Cause: err}
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Used by the bank resolver to detect a concurrent insert of the
// same name, and by the loader to recognize statement-level conflicts.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation
}

// IsStatementFailure reports whether err is a server-side rejection of a
// statement (constraint violation, bad value) as opposed to a broken
// connection. Statement failures are recoverable per record; anything else
// from the database layer is treated as a connection failure.
func IsStatementFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}

// IsConnectionFailure reports whether err indicates the database became
// unreachable or the run was cancelled. The load aborts on these.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// A server that answered with a SQL error is still reachable.
	return !IsStatementFailure(err)
}
