// Package tx carries the active *sqlx.Tx through a context so repository
// calls made inside TransactionManager.WithTransaction join it.
package tx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

func WithTransaction(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func TransactionFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

// Querier is what the mapping and log repositories need from *sqlx.DB or *sqlx.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
}

// GetTransactional returns the transaction stored in ctx, falling back to db
func GetTransactional(ctx context.Context, db *sqlx.DB) Querier {
	if tx, ok := TransactionFromContext(ctx); ok {
		return tx
	}
	return db
}
