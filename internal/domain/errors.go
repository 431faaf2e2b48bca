package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing record.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing records.
var ErrNotFound = NotFoundError{}

// ValidationError represents a payload that failed schema checking.
// Detail names the offending field and is safe to return to callers.
type ValidationError struct {
	Detail string
}

func (e ValidationError) Error() string {
	if e.Detail == "" {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// ErrValidation is the sentinel error for schema violations.
var ErrValidation = ValidationError{}

// ErrNoUpdates is returned when a partial update carries no fields.
var ErrNoUpdates = errors.New("no updates provided")
