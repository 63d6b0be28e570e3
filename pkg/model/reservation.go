package model

import (
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// statusTransitions closes the reservation lifecycle: pending and confirmed
// are the active states, cancelled and completed are terminal.
var statusTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCompleted, ReservationCancelled},
	ReservationCancelled: {},
	ReservationCompleted: {},
}

// Active reports whether a reservation in this status still holds its vehicle.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Reservation is the persisted booking record. Reservations are never
// deleted; cancelled and completed rows remain as the audit trail.
type Reservation struct {
	ID           string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	UserID       string            `json:"user_id" bson:"user_id" validate:"required"`
	VehicleID    string            `json:"vehicle_id" bson:"vehicle_id" validate:"required,uuid4"`
	StartTime    time.Time         `json:"start_time" bson:"start_time" validate:"required"`
	EndTime      time.Time         `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Status       ReservationStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	ContactPhone string            `json:"contact_phone,omitempty" bson:"contact_phone,omitempty" validate:"omitempty,e164"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time         `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// ReservationRequest is the transient input of one reservation attempt.
// Timestamps arrive as RFC3339 strings and are only trusted after the
// request validator has normalized them. UserID is never read from the
// request body; the handler injects it from the identity context.
type ReservationRequest struct {
	VehicleID    string `json:"vehicle_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	ContactPhone string `json:"contact_phone,omitempty"`
	UserID       string `json:"-"`
}
