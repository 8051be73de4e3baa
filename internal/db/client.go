// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

var _ DBClientInterface = (*DBClient)(nil)

const defaultTxTimeout = 60 * time.Second

type txHolderKey struct{}

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	TracingEnabled  bool
	// TxTimeout bounds a transaction independently of the request that opened it
	TxTimeout time.Duration
}

// txHolder carries a transaction that is only opened by the first statement
// run inside WithTx. Read committed is the minimum the membership and invite
// flows rely on, uniqueness is enforced by the schema.
type txHolder struct {
	begin   func(context.Context) (TxInterface, error)
	timeout time.Duration

	tx     TxInterface
	err    error
	cancel context.CancelFunc
	done   bool
}

func (h *txHolder) get() (TxInterface, error) {
	if h.tx != nil || h.err != nil {
		return h.tx, h.err
	}

	// detached from the request so a client disconnect cannot abort a commit halfway
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)

	tx, err := h.begin(ctx)
	if err != nil {
		cancel()
		h.err = fmt.Errorf("failed to begin transaction: %w", err)
		return nil, h.err
	}

	h.tx = tx
	h.cancel = cancel

	return tx, nil
}

func (h *txHolder) started() bool {
	return h.tx != nil
}

func (h *txHolder) release() {
	if h.cancel != nil {
		h.cancel()
	}
}

func txFromContext(ctx context.Context) *txHolder {
	h, _ := ctx.Value(txHolderKey{}).(*txHolder)
	return h
}

type DBClient struct {
	pool *pgxpool.Pool
	db   *sql.DB

	txTimeout time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Statement returns a dollar-placeholder builder bound to the transaction in
// ctx when there is one, to the pool otherwise.
// A transaction that cannot be opened fails every statement of the unit of
// work rather than letting it run half outside the transaction.
func (d *DBClient) Statement(ctx context.Context) sq.StatementBuilderType {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	h := txFromContext(ctx)
	if h == nil {
		return builder.RunWith(d.db)
	}

	tx, err := h.get()
	if err != nil {
		d.logger.Errorf("%v", err)
		return builder.RunWith(failedRunner{err: err})
	}

	return builder.RunWith(tx)
}

// WithTx runs fn as one unit of work, committing when it returns nil.
// Nested calls join the outermost one which owns commit and rollback.
// Nothing is opened when fn never touches the database.
func (d *DBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := d.tracer.Start(ctx, "db.DBClient.WithTx")
	defer span.End()

	h := &txHolder{begin: d.begin, timeout: d.txTimeout}
	defer h.release()

	defer func() {
		if !h.started() || h.done {
			return
		}

		if err := h.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			d.logger.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	if err := fn(context.WithValue(ctx, txHolderKey{}, h)); err != nil {
		d.logger.Debugf("rolling back transaction: %v", err)
		return err
	}

	if !h.started() {
		return nil
	}

	h.done = true
	if err := h.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (d *DBClient) begin(ctx context.Context) (TxInterface, error) {
	return d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// Ping checks the pool can still reach the database.
func (d *DBClient) Ping(ctx context.Context) error {
	ctx, span := d.tracer.Start(ctx, "db.DBClient.Ping")
	defer span.End()

	return d.db.PingContext(ctx)
}

func (d *DBClient) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}

	if d.pool != nil {
		d.pool.Close()
	}
}

// NewDBClient opens a pgx pool and exposes it through database/sql so
// squirrel and goose can share it.
func NewDBClient(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*DBClient, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid DSN: %w", err)
	}

	if cfg.TracingEnabled {
		config.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	config.MaxConns = cfg.MaxConns
	config.MinConns = cfg.MinConns
	config.MaxConnLifetime = cfg.MaxConnLifetime
	config.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10
	config.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if cfg.TracingEnabled {
		if err := otelpgx.RecordStats(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to record database stats: %w", err)
		}
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	d := new(DBClient)
	d.pool = pool
	d.db = db
	d.txTimeout = cfg.TxTimeout
	if d.txTimeout <= 0 {
		d.txTimeout = defaultTxTimeout
	}

	d.tracer = tracer
	d.monitor = monitor
	d.logger = logger

	return d, nil
}

// failedRunner stands in for a transaction that could not be opened.
type failedRunner struct {
	err error
}

type failedRow struct {
	err error
}

func (r failedRow) Scan(...interface{}) error {
	return r.err
}

func (f failedRunner) Exec(string, ...interface{}) (sql.Result, error) {
	return nil, f.err
}

func (f failedRunner) Query(string, ...interface{}) (*sql.Rows, error) {
	return nil, f.err
}

func (f failedRunner) QueryRow(string, ...interface{}) sq.RowScanner {
	return failedRow(f)
}

func (f failedRunner) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, f.err
}

func (f failedRunner) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, f.err
}

func (f failedRunner) QueryRowContext(context.Context, string, ...interface{}) sq.RowScanner {
	return failedRow(f)
}
