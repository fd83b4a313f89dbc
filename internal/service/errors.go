// Package service holds the business rules of the blog on top of the repositories.
package service

import (
	"errors"
	"strings"

	"scribe/internal/forms"
	"scribe/internal/models"
)

var (
	// ErrNotAuthor is returned when someone other than the author changes a post.
	ErrNotAuthor = models.NewUnauthorizedError("Only the author can change this post")
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = models.NewValidationError("You cannot follow yourself")
	// ErrInvalidCredentials is returned by Authenticate for any login failure.
	ErrInvalidCredentials = models.NewUnauthorizedError(forms.MsgInvalidLogin)
)

// FormError carries the field errors of a rejected submission. It unwraps to
// a validation AppError.
type FormError struct {
	Errors forms.Errors
}

func (e *FormError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, field := range e.Errors.Fields() {
		parts = append(parts, field+": "+strings.Join(e.Errors[field], " "))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (e *FormError) Unwrap() error {
	return models.NewValidationError("invalid form")
}

func formError(errs forms.Errors) error {
	if errs.Valid() {
		return nil
	}
	return &FormError{Errors: errs}
}

func appMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
