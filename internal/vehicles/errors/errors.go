package errors

import "errors"

var (
	ErrNotFound = errors.New("vehicle not found")

	ErrInvalidID = errors.New("invalid vehicle ID format")

	ErrUnavailable = errors.New("vehicle is already claimed")

	ErrInMaintenance = errors.New("vehicle is in maintenance")

	ErrNotClaimed = errors.New("vehicle is not currently claimed")

	ErrDuplicatePlate = errors.New("vehicle with this plate number already exists")
)
