package repository

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned when a required field is missing or empty.
	ErrValidation = errors.New("validation failed")
)
