package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Postgres repositories expect a pgx.Tx;
// NoTX (nil) runs the statement on the pool.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one storage transaction. The handle passed to fn
// must be forwarded to every repository call that should join the transaction.
// A non-nil error from fn rolls back.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
