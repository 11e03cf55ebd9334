// Package vehicle
package vehicle

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
)

type Status int

const (
	Available Status = iota
	InUse
	Lost
)

// Vehicle represents a vehicle which can be taken on a ride. Its city must
// equal the city of its owner; the composite foreign key on (city, owner_id)
// keeps the pair in the same partition.
type Vehicle struct {
	City string
	// ID is an internal identifier for a vehicle
	ID uuid.UUID
	// Type is the kind of vehicle (e.g. "scooter", "skateboard")
	Type    sql.NullString
	OwnerID uuid.UUID `db:"owner_id"`

	CreationTime time.Time `db:"creation_time"`

	Status Status

	// CurrentLocation is the address the vehicle was last seen at. It seeds
	// the start address of any ride taken on it.
	CurrentLocation sql.NullString `db:"current_location"`

	// Ext is an open extension document. Stored and returned verbatim.
	Ext db.Document
}

func (s Status) String() string {
	return [...]string{"available", "in_use", "lost"}[s]
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *Status) Scan(i any) error {
	switch v := i.(type) {
	case string:
		switch v {
		case "available":
			*s = Available
			return nil
		case "in_use":
			*s = InUse
			return nil
		case "lost":
			*s = Lost
			return nil
		}
	}
	return fmt.Errorf("invalid vehicle status %v", i)
}
