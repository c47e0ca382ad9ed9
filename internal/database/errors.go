package database

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a job status update matches no
	// row, meaning the job was not in the expected prior status.
	ErrInvalidTransition = errors.New("invalid job status transition")
)
