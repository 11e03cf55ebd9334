package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
	"github.com/semanticallynull/movr-backend/vehicle"
)

type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository {
	return &Repository{
		db: d,
	}
}

// Record appends a location observation for a vehicle.
func (r *Repository) Record(ctx context.Context, city string, vehicleID uuid.UUID, lat, lng float64) error {
	return r.db.Tx(ctx, func(s db.Session) error {
		_, err := s.ExecContext(ctx, recordLocationQuery, city, vehicleID, lat, lng)
		if db.IsForeignKeyViolation(err) {
			return vehicle.ErrNotFound
		}
		return err
	})
}

const recordLocationQuery = `
INSERT INTO vehicle_location_histories (city, vehicle_id, ts, location)
VALUES ($1, $2, now(), point($3, $4))
`

// List returns a vehicle's history oldest first. limit 0 means no cap.
func (r *Repository) List(ctx context.Context, city string, vehicleID uuid.UUID, limit int) ([]Entry, error) {
	var entries []Entry
	err := r.db.Tx(ctx, func(s db.Session) error {
		if limit > 0 {
			return s.SelectContext(ctx, &entries, listHistoryLimitQuery, city, vehicleID, limit)
		}
		return s.SelectContext(ctx, &entries, listHistoryQuery, city, vehicleID)
	})
	return entries, err
}

const listHistoryQuery = `
SELECT * FROM vehicle_location_histories
WHERE city = $1 AND vehicle_id = $2
ORDER BY ts ASC
`

const listHistoryLimitQuery = `
SELECT * FROM vehicle_location_histories
WHERE city = $1 AND vehicle_id = $2
ORDER BY ts ASC
LIMIT $3
`
