package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/brickstay/stayhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// withTx runs fn inside a transaction carried in the context. Nested calls
// join the existing transaction, which is how a booking, its payment credits
// and the revenue distribution commit or roll back as one unit.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// lockAsset takes the asset row lock. Every mutation of one asset's ledger
// or calendar state goes through here, so transfers, listings and bookings
// on the same asset serialize while different assets proceed in parallel.
func lockAsset(ctx context.Context, queryRow func(context.Context, string, ...any) pgx.Row, assetID int64) error {
	const query = `SELECT id FROM assets WHERE id = $1 FOR UPDATE`
	var id int64
	if err := queryRow(ctx, query, assetID).Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrUnknownAsset
		}
		return fmt.Errorf("lock asset: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
