package promo

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
)

type PromoCode struct {
	Code           string
	Description    sql.NullString
	CreationTime   time.Time    `db:"creation_time"`
	ExpirationTime sql.NullTime `db:"expiration_time"`
	// Rules is opaque to the core; whatever redeems the code interprets it.
	Rules db.Document
}

// Expired reports whether the code's expiration has passed. Codes without
// an expiration never expire.
func (p PromoCode) Expired(now time.Time) bool {
	return p.ExpirationTime.Valid && p.ExpirationTime.Time.Before(now)
}

// UserPromoCode records one redemption. The primary key (city, user_id,
// code) makes a second redemption of the same pair a duplicate-key failure.
type UserPromoCode struct {
	City       string
	UserID     uuid.UUID `db:"user_id"`
	Code       string
	TS         time.Time `db:"ts"`
	UsageCount int       `db:"usage_count"`
}
