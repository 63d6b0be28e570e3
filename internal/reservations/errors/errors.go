package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrInvalidTransition = errors.New("reservation status transition not allowed")

	ErrNotOwner = errors.New("reservation belongs to a different user")
)
