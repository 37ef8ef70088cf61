// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sentra-labs/sentra/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

/*
Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
It hides internal database details from the client while classifying the error type.

Description: Unique-constraint violations are mapped to Conflict so that the
database remains the authoritative enforcer of uniqueness under concurrent
writes; service-level pre-checks are best-effort only.

Parameters:
  - err: the raw error from pgx
  - conflictMessage: client-safe message used when a unique violation is detected

Returns:
  - error: typed AppError, or nil when err is nil
*/
func Wrap(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping (soft-deleted rows surface the same way)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint violation mapping via the Postgres SQLSTATE
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.UniqueViolation:
			return apperr.Conflict(conflictMessage)
		case pgerrcode.ForeignKeyViolation:
			return apperr.Conflict("Operation conflicts with related records")
		}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}
