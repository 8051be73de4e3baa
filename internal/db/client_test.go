// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/tracing"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (f *fakeTx) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }

func (f *fakeTx) Commit() error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback() error {
	f.rolledBack = true
	return nil
}

func newTestClient() *DBClient {
	d := new(DBClient)
	d.txTimeout = defaultTxTimeout
	d.logger = logging.NewNoopLogger()
	d.tracer = tracing.NewNoopTracer()
	return d
}

// touch opens the transaction the way a statement would.
func touch(ctx context.Context) error {
	_, err := txFromContext(ctx).get()
	return err
}

func withFakeTx(tx *fakeTx, beginErr error) func(*txHolder) {
	return func(h *txHolder) {
		h.begin = func(context.Context) (TxInterface, error) {
			if beginErr != nil {
				return nil, beginErr
			}
			return tx, nil
		}
	}
}

func TestWithTx_NestedCallsJoinOuterTransaction(t *testing.T) {
	d := newTestClient()

	var outer, inner *txHolder
	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		outer = txFromContext(ctx)
		return d.WithTx(ctx, func(ctx context.Context) error {
			inner = txFromContext(ctx)
			return nil
		})
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outer == nil || outer != inner {
		t.Fatal("nested WithTx should reuse the outer transaction holder")
	}
	if outer.started() {
		t.Error("transaction must not start without database access")
	}
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	sentinel := errors.New("boom")

	tests := []struct {
		name           string
		fnErr          error
		commitErr      error
		expectErr      bool
		expectCommit   bool
		expectRollback bool
	}{
		{
			name:         "commits on success",
			expectCommit: true,
		},
		{
			name:           "rolls back on error",
			fnErr:          sentinel,
			expectErr:      true,
			expectRollback: true,
		},
		{
			name:         "surfaces commit failure",
			commitErr:    errors.New("serialization failure"),
			expectErr:    true,
			expectCommit: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := newTestClient()
			tx := &fakeTx{commitErr: test.commitErr}

			err := d.WithTx(context.Background(), func(ctx context.Context) error {
				withFakeTx(tx, nil)(txFromContext(ctx))
				if err := touch(ctx); err != nil {
					t.Fatalf("unexpected begin error: %v", err)
				}
				return test.fnErr
			})

			if (err != nil) != test.expectErr {
				t.Fatalf("expected error %v, got %v", test.expectErr, err)
			}
			if test.fnErr != nil && !errors.Is(err, test.fnErr) {
				t.Errorf("expected %v, got %v", test.fnErr, err)
			}
			if tx.committed != test.expectCommit {
				t.Errorf("expected commit %v, got %v", test.expectCommit, tx.committed)
			}
			if tx.rolledBack != test.expectRollback {
				t.Errorf("expected rollback %v, got %v", test.expectRollback, tx.rolledBack)
			}
		})
	}
}

func TestStatement_FailedBeginPoisonsUnitOfWork(t *testing.T) {
	d := newTestClient()
	sentinel := errors.New("too many connections")

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		withFakeTx(nil, sentinel)(txFromContext(ctx))

		var id string
		return d.Statement(ctx).
			Select("id").
			From("workspaces").
			QueryRowContext(ctx).
			Scan(&id)
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected begin error, got %v", err)
	}
}

func TestTransactionMiddleware(t *testing.T) {
	tests := []struct {
		method   string
		status   int
		expectTx bool
	}{
		{method: http.MethodGet, status: http.StatusOK, expectTx: false},
		{method: http.MethodHead, status: http.StatusOK, expectTx: false},
		{method: http.MethodOptions, status: http.StatusNoContent, expectTx: false},
		{method: http.MethodPost, status: http.StatusCreated, expectTx: true},
		{method: http.MethodDelete, status: http.StatusForbidden, expectTx: true},
	}

	for _, test := range tests {
		t.Run(test.method, func(t *testing.T) {
			d := newTestClient()

			var sawTx bool
			h := TransactionMiddleware(d, d.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sawTx = txFromContext(r.Context()) != nil
				w.WriteHeader(test.status)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(test.method, "/", nil))

			if sawTx != test.expectTx {
				t.Errorf("expected transaction %v, got %v", test.expectTx, sawTx)
			}
			if rec.Code != test.status {
				t.Errorf("expected status %d, got %d", test.status, rec.Code)
			}
		})
	}
}
