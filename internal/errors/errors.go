// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Sentinel errors forming the engine's failure taxonomy. Callers branch
// with errors.Is; everything store-shaped that is not one of these is
// wrapped as ErrUnavailable.
var (
	// ErrNotFound: a referenced user, profile, or match does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a swipe already exists for this (actor, target) pair.
	// Expected outcome, not a system error: treat as "already decided".
	ErrConflict = errors.New("already decided")

	// ErrAlreadyExists: a match row already exists for the canonical pair.
	// The losing side of a match-creation race observes this and treats
	// it as success.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnavailable: the durable store failed. Not retried internally;
	// session state is left untouched so the caller can retry.
	ErrUnavailable = errors.New("store unavailable")
)

// ValidationError rejects bad input before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for the given field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Map converts gorm/driver errors into the domain taxonomy.
// Keeps repositories and services clean by centralizing the mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)

	default:
		// fallback → keep the cause for debugging
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// HTTPStatus maps a taxonomy error to the status code the HTTP facade
// should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
