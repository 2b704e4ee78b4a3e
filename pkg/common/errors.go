package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record or queue entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput rejects caller-side validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when no authenticated identity is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotOwner is returned when the caller does not own the record.
	ErrNotOwner = errors.New("caller is not record owner")

	// ErrMatchInProgress is returned when a match is started while another is active.
	ErrMatchInProgress = errors.New("match already in progress")

	// ErrNoActiveMatch is returned when an operation needs an active match.
	ErrNoActiveMatch = errors.New("no active match")

	// ErrStorageFailed wraps local or remote persistence failures.
	ErrStorageFailed = errors.New("storage failed")

	// ErrNotConnected is returned by publishers that have no live connection.
	ErrNotConnected = errors.New("not connected")
)

// AppError carries a stable code alongside the wrapped cause.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a STORAGE_FAILED error that matches ErrStorageFailed
// as well as cause.
func NewStorageError(message string, cause error) *AppError {
	return NewAppError("STORAGE_FAILED", message, fmt.Errorf("%w: %w", ErrStorageFailed, cause))
}

// NewAppError creates an application error.
func NewAppError(code string, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
