package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function inside a database transaction,
// passing the handle through `tx` so use-case interfaces stay free of
// storage types. Repositories accept a nil Tx for the non-transactional
// path and may use a live handle to take row locks.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
