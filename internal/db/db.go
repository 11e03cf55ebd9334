// Package db owns the connection to the geo-partitioned store and the
// retryable-transaction protocol every repository runs through.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Session is a single transaction attempt. *sqlx.Tx satisfies it; tests
// substitute fakes. A session is bound to exactly one attempt and must not
// be reused after Commit or Rollback.
type Session interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}

type Options struct {
	// AutoCreateSchema runs the idempotent DDL once at open.
	AutoCreateSchema bool
	// Verbose logs every retry and schema statement at debug level.
	Verbose bool
	// MaxTxRetries caps attempts per transaction. 0 means DefaultMaxTxRetries.
	MaxTxRetries int

	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// DefaultMaxTxRetries is deliberately high: serialization conflicts are
// expected to be transient, but unbounded retry under sustained contention
// would be a liveness bug.
const DefaultMaxTxRetries = 50

// DB is the single long-lived handle to the store. It is safe for
// concurrent use; each transaction gets its own Session.
type DB struct {
	db     *sqlx.DB
	logger *slog.Logger
	tracer trace.Tracer

	maxTxRetries   int
	backoffInitial time.Duration
	backoffMax     time.Duration
	newSession     func(ctx context.Context) (Session, error)

	txRetries  prometheus.Counter
	txFailures *prometheus.CounterVec
}

// Open connects to the store. The URL is passed through to the driver
// untouched. Connection failures are never retried; report them with
// IsConnectionErr.
func Open(ctx context.Context, databaseURL string, opts Options) (*DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Verbose {
		logger = logger.With(slog.Bool("db_verbose", true))
	}

	sdb, err := sqlx.ConnectContext(ctx, "pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect %q: %w", redact(databaseURL), err)
	}

	d := &DB{
		db:             sdb,
		logger:         logger,
		tracer:         otel.Tracer("db"),
		maxTxRetries:   opts.MaxTxRetries,
		backoffInitial: 10 * time.Millisecond,
		backoffMax:     time.Second,
	}
	if d.maxTxRetries <= 0 {
		d.maxTxRetries = DefaultMaxTxRetries
	}
	d.newSession = func(ctx context.Context) (Session, error) {
		tx, err := sdb.BeginTxx(ctx, nil)
		if err != nil {
			return nil, err
		}
		return tx, nil
	}

	d.txRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "db_tx_retries_total",
		Help: "Transaction attempts retried after a serialization conflict",
	})
	d.txFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "db_tx_failures_total",
		Help: "Transactions that failed terminally",
	}, []string{"reason"})
	if opts.Registry != nil {
		opts.Registry.MustRegister(d.txRetries, d.txFailures)
	}

	if opts.AutoCreateSchema {
		if err := d.createSchema(ctx, opts.Verbose); err != nil {
			sdb.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return d, nil
}

// NewSession begins a transaction. Callers almost never want this directly;
// use Tx, which owns commit, rollback and retry.
func (d *DB) NewSession(ctx context.Context) (Session, error) {
	return d.newSession(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

// redact strips everything between the scheme and the host so credentials
// never reach logs or error messages.
func redact(url string) string {
	i := strings.Index(url, "://")
	j := strings.LastIndex(url, "@")
	if i == -1 || j < i+3 {
		return url
	}
	return url[:i+3] + "***" + url[j:]
}
