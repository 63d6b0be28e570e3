package model

import "time"

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleUnavailable VehicleStatus = "unavailable"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// Vehicle carries the availability state the reservation core claims and
// releases. The vehicles collection is the single source of truth for
// claimability; services never cache Status across requests.
type Vehicle struct {
	ID          string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	PlateNumber string        `json:"plate_number" bson:"plate_number" validate:"required,min=2,max=16"`
	Model       string        `json:"model" bson:"model" validate:"required,min=2,max=64"`
	Status      VehicleStatus `json:"status" bson:"status" validate:"required,oneof=available unavailable maintenance"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}
