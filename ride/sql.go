package ride

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
	"github.com/semanticallynull/movr-backend/vehicle"
)

var (
	ErrNotFound            = errors.New("ride not found")
	ErrAlreadyEnded        = errors.New("ride already ended")
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrVehicleNotAvailable = errors.New("vehicle not available")
	ErrRiderNotFound       = errors.New("rider not found in city")
)

type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository {
	return &Repository{
		db: d,
	}
}

// Start creates a ride on an available vehicle and marks the vehicle in_use.
// Both writes commit together or not at all; a ride without its vehicle
// flipped (or the reverse) is never observable.
func (r *Repository) Start(ctx context.Context, city string, riderID, vehicleID uuid.UUID) (Ride, error) {
	var ride Ride
	err := r.db.Tx(ctx, func(s db.Session) error {
		var v struct {
			Status          vehicle.Status
			CurrentLocation sql.NullString `db:"current_location"`
		}
		err := s.GetContext(ctx, &v, lockVehicleQuery, city, vehicleID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVehicleNotFound
		}
		if err != nil {
			return err
		}
		if v.Status != vehicle.Available {
			return ErrVehicleNotAvailable
		}

		err = s.GetContext(ctx, &ride, startRideQuery, city, uuid.New(), vehicleID, riderID, v.CurrentLocation)
		if db.IsForeignKeyViolation(err) {
			return ErrRiderNotFound
		}
		if err != nil {
			return err
		}

		_, err = s.ExecContext(ctx, setVehicleStatusQuery, city, vehicleID, vehicle.InUse)
		return err
	})
	if err != nil {
		return Ride{}, err
	}
	return ride, nil
}

const lockVehicleQuery = `SELECT status, current_location FROM vehicles WHERE city = $1 AND id = $2 FOR UPDATE`

const startRideQuery = `
INSERT INTO rides (city, id, vehicle_city, vehicle_id, rider_id, start_address, start_time)
VALUES ($1, $2, $1, $3, $4, $5, now())
RETURNING *
`

const setVehicleStatusQuery = `UPDATE vehicles SET status = $3 WHERE city = $1 AND id = $2`

// End completes a ride and returns its vehicle to available at endAddress.
// Ending twice applies once: the second call sees end_time set and fails
// with ErrAlreadyEnded.
func (r *Repository) End(ctx context.Context, city string, rideID uuid.UUID, endAddress string) (Ride, error) {
	var ride Ride
	err := r.db.Tx(ctx, func(s db.Session) error {
		err := s.GetContext(ctx, &ride, lockRideQuery, city, rideID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if ride.Ended() {
			return ErrAlreadyEnded
		}

		if err := s.GetContext(ctx, &ride, endRideQuery, city, rideID, endAddress); err != nil {
			return err
		}

		_, err = s.ExecContext(ctx, returnVehicleQuery, ride.VehicleCity, ride.VehicleID, endAddress)
		return err
	})
	if err != nil {
		return Ride{}, err
	}
	return ride, nil
}

const lockRideQuery = `SELECT * FROM rides WHERE city = $1 AND id = $2 FOR UPDATE`

const endRideQuery = `
UPDATE rides SET end_address = $3, end_time = now()
WHERE city = $1 AND id = $2
RETURNING *
`

const returnVehicleQuery = `
UPDATE vehicles SET status = 'available', current_location = $3
WHERE city = $1 AND id = $2
`

// Active returns rides not yet ended in one city. limit 0 means no cap.
func (r *Repository) Active(ctx context.Context, city string, limit int) ([]Ride, error) {
	var rides []Ride
	err := r.db.Tx(ctx, func(s db.Session) error {
		if limit > 0 {
			return s.SelectContext(ctx, &rides, activeRidesLimitQuery, city, limit)
		}
		return s.SelectContext(ctx, &rides, activeRidesQuery, city)
	})
	return rides, err
}

const activeRidesQuery = `SELECT * FROM rides WHERE city = $1 AND end_time IS NULL ORDER BY city, id`
const activeRidesLimitQuery = `SELECT * FROM rides WHERE city = $1 AND end_time IS NULL ORDER BY city, id LIMIT $2`

func (r *Repository) Get(ctx context.Context, city string, id uuid.UUID) (Ride, error) {
	var ride Ride
	err := r.db.Tx(ctx, func(s db.Session) error {
		return s.GetContext(ctx, &ride, getRideQuery, city, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Ride{}, ErrNotFound
	}
	return ride, err
}

const getRideQuery = `SELECT * FROM rides WHERE city = $1 AND id = $2`
