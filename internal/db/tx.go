package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
)

// ErrTxMaxRetries reports that a transaction kept hitting serialization
// conflicts until the retry ceiling. The last conflict is wrapped alongside.
var ErrTxMaxRetries = errors.New("transaction retry limit reached")

// Tx runs work in a serializable transaction, retrying on conflict.
//
// Every attempt gets a fresh session: an aborted transaction poisons its
// session, so sessions are never reused across attempts. The work function
// must be safe to re-run from scratch and must not keep state from a prior
// attempt. Results are returned by capturing variables in the closure.
//
// Conflicts (SQLSTATE 40001 and friends) are retried with exponential
// backoff and jitter up to the configured ceiling. Constraint violations,
// connectivity loss and programming errors propagate immediately.
// Cancelling ctx aborts the loop at the next retry boundary; the in-flight
// session is rolled back on every exit path.
func (d *DB) Tx(ctx context.Context, work func(Session) error) error {
	ctx, span := d.tracer.Start(ctx, "db.tx")
	defer span.End()

	attempts := 0
	op := func() (struct{}, error) {
		attempts++
		err := d.attempt(ctx, work)
		switch {
		case err == nil:
			return struct{}{}, nil
		case IsRetryableErr(err):
			d.txRetries.Inc()
			d.logger.DebugContext(ctx, "transaction conflict, retrying",
				"attempt", attempts, "error", err)
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.backoffInitial
	bo.MaxInterval = d.backoffMax

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(d.maxTxRetries)),
	)
	span.SetAttributes(attribute.Int("db.tx.attempts", attempts))

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		d.txFailures.WithLabelValues("cancelled").Inc()
		return ctx.Err()
	case IsRetryableErr(err):
		d.txFailures.WithLabelValues("retry_exhausted").Inc()
		return fmt.Errorf("%w after %d attempts: %w", ErrTxMaxRetries, attempts, err)
	default:
		d.txFailures.WithLabelValues("fatal").Inc()
		return err
	}
}

// attempt runs work in one session. Rollback is deferred so the session is
// released on every path; after a successful commit it is a no-op.
func (d *DB) attempt(ctx context.Context, work func(Session) error) error {
	sess, err := d.newSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			d.logger.WarnContext(ctx, "transaction rollback failed", "error", err)
		}
	}()

	if err := work(sess); err != nil {
		return err
	}
	// Serializable stores can abort at commit time; a commit conflict is as
	// retryable as one raised mid-transaction.
	return sess.Commit()
}
