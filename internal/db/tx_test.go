package db

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

type fakeSession struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (s *fakeSession) GetContext(context.Context, any, string, ...any) error    { return nil }
func (s *fakeSession) SelectContext(context.Context, any, string, ...any) error { return nil }
func (s *fakeSession) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}

func (s *fakeSession) Commit() error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.committed = true
	return nil
}

func (s *fakeSession) Rollback() error {
	if s.committed {
		return sql.ErrTxDone
	}
	s.rolledBack = true
	return nil
}

type fakeStore struct {
	sessions  []*fakeSession
	commitErr func(attempt int) error
}

func (f *fakeStore) newSession(context.Context) (Session, error) {
	s := &fakeSession{}
	if f.commitErr != nil {
		s.commitErr = f.commitErr(len(f.sessions) + 1)
	}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func newTestDB(store *fakeStore, maxRetries int) *DB {
	return &DB{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:         otel.Tracer("test"),
		maxTxRetries:   maxRetries,
		backoffInitial: time.Microsecond,
		backoffMax:     10 * time.Microsecond,
		newSession:     store.newSession,
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "test_db_tx_retries_total",
		}),
		txFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_db_tx_failures_total",
		}, []string{"reason"}),
	}
}

func conflictErr() error {
	return &pgconn.PgError{Code: "40001", Severity: "ERROR", Message: "restart transaction: retry txn"}
}

func TestTxRetriesConflictWithFreshSessions(t *testing.T) {
	store := &fakeStore{}
	d := newTestDB(store, DefaultMaxTxRetries)

	var seen []Session
	attempts := 0
	err := d.Tx(context.Background(), func(s Session) error {
		seen = append(seen, s)
		attempts++
		if attempts <= 3 {
			return conflictErr()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
	if len(store.sessions) != 4 {
		t.Fatalf("expected 4 sessions, got %d", len(store.sessions))
	}
	for i, s := range seen {
		for j := i + 1; j < len(seen); j++ {
			if s == seen[j] {
				t.Errorf("session reused across attempts %d and %d", i, j)
			}
		}
	}
	for i, s := range store.sessions[:3] {
		if !s.rolledBack {
			t.Errorf("aborted session %d was not rolled back", i)
		}
		if s.committed {
			t.Errorf("aborted session %d was committed", i)
		}
	}
	if !store.sessions[3].committed {
		t.Error("final session was not committed")
	}
}

func TestTxDoesNotRetryNonRetryableError(t *testing.T) {
	store := &fakeStore{}
	d := newTestDB(store, DefaultMaxTxRetries)

	boom := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	attempts := 0
	err := d.Tx(context.Background(), func(s Session) error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
	if !store.sessions[0].rolledBack {
		t.Error("session was not rolled back")
	}
}

func TestTxRetryCeiling(t *testing.T) {
	store := &fakeStore{}
	d := newTestDB(store, 3)

	attempts := 0
	err := d.Tx(context.Background(), func(s Session) error {
		attempts++
		return conflictErr()
	})
	if !errors.Is(err, ErrTxMaxRetries) {
		t.Fatalf("expected ErrTxMaxRetries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	for i, s := range store.sessions {
		if !s.rolledBack {
			t.Errorf("session %d was not rolled back", i)
		}
	}
}

func TestTxRetriesCommitConflict(t *testing.T) {
	store := &fakeStore{
		commitErr: func(attempt int) error {
			if attempt == 1 {
				return conflictErr()
			}
			return nil
		},
	}
	d := newTestDB(store, DefaultMaxTxRetries)

	attempts := 0
	err := d.Tx(context.Background(), func(s Session) error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if !store.sessions[1].committed {
		t.Error("second session was not committed")
	}
}

func TestTxCancellation(t *testing.T) {
	store := &fakeStore{}
	d := newTestDB(store, DefaultMaxTxRetries)

	ctx, cancel := context.WithCancel(context.Background())
	err := d.Tx(ctx, func(s Session) error {
		cancel()
		return conflictErr()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for i, s := range store.sessions {
		if !s.rolledBack && !s.committed {
			t.Errorf("session %d leaked without release", i)
		}
	}
	if len(store.sessions) > 0 && !store.sessions[len(store.sessions)-1].rolledBack {
		t.Error("in-flight session was not rolled back on cancellation")
	}
}
