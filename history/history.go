package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Entry is one append-only location observation for a vehicle. The store
// assigns TS, so entries for a vehicle are in increasing timestamp order.
type Entry struct {
	City      string
	VehicleID uuid.UUID `db:"vehicle_id"`
	TS        time.Time `db:"ts"`
	Location  pgtype.Point
}
