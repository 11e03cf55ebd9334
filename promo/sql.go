package promo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
)

var (
	ErrNotFound       = errors.New("promo code not found")
	ErrExpired        = errors.New("promo code expired")
	ErrAlreadyApplied = errors.New("promo code already applied by this user")
	ErrUserNotFound   = errors.New("user not found in city")
)

type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

func (r *Repository) Create(ctx context.Context, code, description string, rules db.Document, expiresAt *time.Time) (PromoCode, error) {
	var p PromoCode
	err := r.db.Tx(ctx, func(s db.Session) error {
		return s.GetContext(ctx, &p, createPromoQuery, code, description, expiresAt, rules)
	})
	return p, err
}

const createPromoQuery = `
INSERT INTO promo_codes (code, description, creation_time, expiration_time, rules)
VALUES ($1, $2, now(), $3, $4)
RETURNING *
`

func (r *Repository) Get(ctx context.Context, code string) (PromoCode, error) {
	var p PromoCode
	err := r.db.Tx(ctx, func(s db.Session) error {
		return s.GetContext(ctx, &p, getPromoQuery, code)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return PromoCode{}, ErrNotFound
	}
	return p, err
}

const getPromoQuery = `SELECT * FROM promo_codes WHERE code = $1`

// List returns promo codes in code order. limit 0 means no cap.
func (r *Repository) List(ctx context.Context, limit int) ([]PromoCode, error) {
	var promos []PromoCode
	err := r.db.Tx(ctx, func(s db.Session) error {
		if limit > 0 {
			return s.SelectContext(ctx, &promos, listPromosLimitQuery, limit)
		}
		return s.SelectContext(ctx, &promos, listPromosQuery)
	})
	return promos, err
}

const listPromosQuery = `SELECT * FROM promo_codes ORDER BY code`
const listPromosLimitQuery = `SELECT * FROM promo_codes ORDER BY code LIMIT $1`

// Apply redeems a code for a user. The existence check and the insert run
// in the same transaction, so two concurrent applies of the same
// (user, code) pair end with exactly one success and one ErrAlreadyApplied.
func (r *Repository) Apply(ctx context.Context, city string, userID uuid.UUID, code string) (UserPromoCode, error) {
	var applied UserPromoCode
	err := r.db.Tx(ctx, func(s db.Session) error {
		var p PromoCode
		err := s.GetContext(ctx, &p, getPromoQuery, code)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if p.Expired(time.Now()) {
			return ErrExpired
		}

		err = s.GetContext(ctx, &applied, applyPromoQuery, city, userID, code)
		switch {
		case db.IsUniqueViolation(err):
			return ErrAlreadyApplied
		case db.IsForeignKeyViolation(err):
			return ErrUserNotFound
		}
		return err
	})
	if err != nil {
		return UserPromoCode{}, err
	}
	return applied, nil
}

const applyPromoQuery = `
INSERT INTO user_promo_codes (city, user_id, code, ts, usage_count)
VALUES ($1, $2, $3, now(), 0)
RETURNING *
`

// IncrementUsage bumps the usage count on an existing redemption.
func (r *Repository) IncrementUsage(ctx context.Context, city string, userID uuid.UUID, code string) error {
	return r.db.Tx(ctx, func(s db.Session) error {
		res, err := s.ExecContext(ctx, incrementUsageQuery, city, userID, code)
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

const incrementUsageQuery = `
UPDATE user_promo_codes SET usage_count = usage_count + 1
WHERE city = $1 AND user_id = $2 AND code = $3
`
