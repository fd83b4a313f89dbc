// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"scribe/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError recognizes unique violations from PostgreSQL and SQLite.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint failed")
}

// lookupError translates a single-row lookup failure.
func lookupError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// writeError translates a create/update failure. Unique violations become
// validation errors carrying message.
func writeError(err error, message string) error {
	if isUniqueConstraintError(err) {
		return &models.AppError{Code: models.CodeValidation, Message: message, Err: err}
	}
	return models.NewInternalError(err)
}
