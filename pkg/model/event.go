package model

import "time"

// ReservationEvent is the payload published on the reservation lifecycle
// topic whenever a reservation changes state.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	VehicleID     string    `json:"vehicle_id"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	OccurredAt    time.Time `json:"occurred_at"`
}
