package vehicle

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
)

var (
	ErrNotFound = errors.New("vehicle not found")
	// ErrOwnerNotFound covers both a missing owner and an owner in another
	// city; the composite foreign key cannot tell the two apart.
	ErrOwnerNotFound = errors.New("owner not found in vehicle city")
)

type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

// List returns vehicles in one city in natural key order (city, id).
// limit 0 means no cap. The result is a bounded snapshot; re-calling
// restarts the scan.
func (r *Repository) List(ctx context.Context, city string, limit int) ([]Vehicle, error) {
	var vehicles []Vehicle
	err := r.db.Tx(ctx, func(s db.Session) error {
		if limit > 0 {
			return s.SelectContext(ctx, &vehicles, listVehiclesLimitQuery, city, limit)
		}
		return s.SelectContext(ctx, &vehicles, listVehiclesQuery, city)
	})
	return vehicles, err
}

const listVehiclesQuery = `SELECT * FROM vehicles WHERE city = $1 ORDER BY city, id`
const listVehiclesLimitQuery = `SELECT * FROM vehicles WHERE city = $1 ORDER BY city, id LIMIT $2`

func (r *Repository) Get(ctx context.Context, city string, id uuid.UUID) (Vehicle, error) {
	var v Vehicle
	err := r.db.Tx(ctx, func(s db.Session) error {
		return s.GetContext(ctx, &v, getVehicleQuery, city, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Vehicle{}, ErrNotFound
	}
	return v, err
}

const getVehicleQuery = `SELECT * FROM vehicles WHERE city = $1 AND id = $2`

// Add inserts a vehicle owned by ownerID. The insert fails with
// ErrOwnerNotFound when the owner does not exist in the same city, so a
// cross-city vehicle can never persist.
func (r *Repository) Add(ctx context.Context, city string, ownerID uuid.UUID, typ, location string, ext db.Document) (Vehicle, error) {
	var v Vehicle
	err := r.db.Tx(ctx, func(s db.Session) error {
		err := s.GetContext(ctx, &v, addVehicleQuery, city, uuid.New(), typ, ownerID, location, ext)
		if db.IsForeignKeyViolation(err) {
			return ErrOwnerNotFound
		}
		return err
	})
	if err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

const addVehicleQuery = `
INSERT INTO vehicles (city, id, type, owner_id, status, current_location, ext)
VALUES ($1, $2, $3, $4, 'available', $5, $6)
RETURNING *
`

func (r *Repository) Delete(ctx context.Context, city string, id uuid.UUID) error {
	return r.db.Tx(ctx, func(s db.Session) error {
		res, err := s.ExecContext(ctx, deleteVehicleQuery, city, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

const deleteVehicleQuery = `DELETE FROM vehicles WHERE city = $1 AND id = $2`
