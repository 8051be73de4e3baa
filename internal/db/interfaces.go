// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

type DBClientInterface interface {
	// Statement returns a builder running in the transaction carried by the context, if any
	Statement(context.Context) sq.StatementBuilderType
	// WithTx runs the function as a single unit of work
	WithTx(context.Context, func(context.Context) error) error
	Ping(context.Context) error
	Close()
}

// TxInterface is the subset of *sql.Tx the client drives.
type TxInterface interface {
	sq.BaseRunner

	Commit() error
	Rollback() error
}
