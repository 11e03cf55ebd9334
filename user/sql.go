package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/semanticallynull/movr-backend/internal/db"
)

type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository {
	return &Repository{
		db: d,
	}
}

var ErrNotFound = errors.New("user not found")

func (r *Repository) Add(ctx context.Context, city, name, address, creditCard string) (User, error) {
	var u User
	err := r.db.Tx(ctx, func(s db.Session) error {
		return s.GetContext(ctx, &u, addUserQuery, city, uuid.New(), name, address, creditCard)
	})
	return u, err
}

const addUserQuery = `
INSERT INTO users (city, id, name, address, credit_card)
VALUES ($1, $2, $3, $4, $5)
RETURNING *
`

func (r *Repository) Get(ctx context.Context, city string, id uuid.UUID) (User, error) {
	var u User
	err := r.db.Tx(ctx, func(s db.Session) error {
		return s.GetContext(ctx, &u, getUserQuery, city, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

const getUserQuery = `SELECT * FROM users WHERE city = $1 AND id = $2`

// List returns users in one city in key order. limit 0 means no cap.
func (r *Repository) List(ctx context.Context, city string, limit int) ([]User, error) {
	var users []User
	err := r.db.Tx(ctx, func(s db.Session) error {
		if limit > 0 {
			return s.SelectContext(ctx, &users, listUsersLimitQuery, city, limit)
		}
		return s.SelectContext(ctx, &users, listUsersQuery, city)
	})
	return users, err
}

const listUsersQuery = `SELECT * FROM users WHERE city = $1 ORDER BY city, id`
const listUsersLimitQuery = `SELECT * FROM users WHERE city = $1 ORDER BY city, id LIMIT $2`

func (r *Repository) Delete(ctx context.Context, city string, id uuid.UUID) error {
	return r.db.Tx(ctx, func(s db.Session) error {
		res, err := s.ExecContext(ctx, deleteUserQuery, city, id)
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

const deleteUserQuery = `DELETE FROM users WHERE city = $1 AND id = $2`
