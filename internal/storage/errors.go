// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
)

// pgErrorCode returns the SQLSTATE carried by err, or "" for non-postgres errors.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

// classify translates driver errors into the package sentinels, op names the
// failed operation for anything left unclassified.
func classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	}

	switch pgErrorCode(err) {
	case pgErrCodeUniqueViolation:
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	case pgErrCodeForeignKeyViolation:
		return fmt.Errorf("%s: %w", op, ErrForeignKeyViolation)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
