package db

import (
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes surfaced by the store.
const (
	codeSerializationFailure = "40001"
	codeStatementCompletion  = "40003"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	classIntegrityConstraint = "23"
	classConnectionException = "08"
)

// IsRetryableErr reports whether err is a transient serialization conflict
// that the transaction executor should recover by retrying. CockroachDB
// signals these as 40001 with a "restart transaction" message; plain
// Postgres uses 40001/40P01 under SERIALIZABLE.
func IsRetryableErr(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeStatementCompletion, codeDeadlockDetected:
		return true
	}
	return strings.HasPrefix(pgErr.Message, "restart transaction")
}

// IsUniqueViolation reports a duplicate-key failure.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports a missing or mismatched referenced row.
// With composite city-first foreign keys this is also how the
// co-partitioning invariant surfaces.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsCheckViolation reports a CHECK constraint failure.
func IsCheckViolation(err error) bool {
	return hasCode(err, codeCheckViolation)
}

// IsConstraintViolation reports any integrity-constraint failure (class 23).
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, classIntegrityConstraint)
}

// IsConnectionErr reports that the store is unreachable or dropped the
// connection. Never retried by the executor; callers should retry the whole
// request later.
func IsConnectionErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, classConnectionException) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
