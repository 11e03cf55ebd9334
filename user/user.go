package user

import (
	"database/sql"

	"github.com/google/uuid"
)

// User is one row of the users table. The primary key is (city, id):
// city leads because it is also the partition key.
type User struct {
	City       string
	ID         uuid.UUID
	Name       sql.NullString
	Address    sql.NullString
	CreditCard sql.NullString `db:"credit_card"`
}
