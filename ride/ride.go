package ride

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Ride joins a rider to a vehicle. vehicle_city always equals city (a CHECK
// constraint enforces it), so a ride never references across partitions.
type Ride struct {
	City         string
	ID           uuid.UUID
	VehicleCity  sql.NullString `db:"vehicle_city"`
	VehicleID    uuid.UUID      `db:"vehicle_id"`
	RiderID      uuid.UUID      `db:"rider_id"`
	StartAddress sql.NullString `db:"start_address"`
	EndAddress   sql.NullString `db:"end_address"`
	StartTime    time.Time      `db:"start_time"`
	EndTime      sql.NullTime   `db:"end_time"`
}

// Ended reports whether the ride has completed.
func (r Ride) Ended() bool {
	return r.EndTime.Valid
}
