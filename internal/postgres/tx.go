package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Beginner dipenuhi *pgxpool.Pool; interface supaya unit of work bisa
// dites tanpa server postgres.
type Beginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// WithTx menjalankan fn dalam satu transaksi: error apa pun -> rollback
// penuh, tidak ada partial apply.
func WithTx(ctx context.Context, db Beginner, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
