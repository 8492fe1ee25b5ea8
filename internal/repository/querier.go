package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx. Every
// repository runs against a Querier so the same implementation serves both
// pooled reads and transactional invariant checks.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner begins a transaction and runs fn inside it. Implemented by
// persistence.Postgres.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
