package model

import "time"

// Notification is written by the notifier worker for every reservation
// lifecycle event it consumes. Delivery to the user is a separate concern;
// this collection is the outbox the presentation layer reads from.
type Notification struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        string    `json:"user_id" bson:"user_id"`
	ReservationID string    `json:"reservation_id" bson:"reservation_id"`
	VehicleID     string    `json:"vehicle_id" bson:"vehicle_id"`
	Event         string    `json:"event" bson:"event"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
