package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// "Key (email)=(a@b.c) already exists."
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// "UNIQUE constraint failed: users.email"
	reSQLiteColumn = regexp.MustCompile(`constraint failed: \w+\.(\w+)`)
)

// MapDBError maps database errors from either supported driver to AppError instances:
//   - sql.ErrNoRows / pgx.ErrNoRows → NotFound
//   - unique violations → Conflict (with Field when it can be recovered)
//   - NOT NULL and CHECK violations → Validation
//   - context deadline/cancel → Timeout/Canceled
//
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return mapSQLiteError(liteErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		field := pgErr.ColumnName
		if field == "" && pgErr.Detail != "" {
			if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
				field = m[1]
			}
		}
		if field == "" {
			field = inferFieldFromConstraint(pgErr.ConstraintName)
		}
		return conflict(field, pgErr)
	case pgerrcode.NotNullViolation, pgerrcode.CheckViolation:
		return validation(pgErr.ColumnName, pgErr)
	default:
		return Wrap(pgErr, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}

func mapSQLiteError(liteErr sqlite3.Error) error {
	if liteErr.Code != sqlite3.ErrConstraint {
		return Wrap(liteErr, ErrCodeInternal, "A database error occurred. Please try again.")
	}

	var field string
	if m := reSQLiteColumn.FindStringSubmatch(liteErr.Error()); len(m) == 2 {
		field = m[1]
	}

	switch liteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return conflict(field, liteErr)
	case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
		return validation(field, liteErr)
	default:
		return Wrap(liteErr, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}

func conflict(field string, cause error) error {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: "This value already exists. Please choose a different one.",
		Field:   field,
		Cause:   cause,
	}
}

func validation(field string, cause error) error {
	if field != "" {
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "This field has an invalid value.",
			Field:   field,
			Cause:   cause,
		}
	}
	return Wrap(cause, ErrCodeValidation, "Invalid data. Please check your input.")
}

// inferFieldFromConstraint guesses the column from "<table>_<column>_key" style names.
// Multi-column and expression index names yield "".
func inferFieldFromConstraint(constraintName string) string {
	parts := strings.Split(constraintName, "_")
	if len(parts) != 3 {
		return ""
	}
	switch strings.ToLower(parts[1]) {
	case "lower", "upper", "trim":
		return ""
	}
	return parts[1]
}
