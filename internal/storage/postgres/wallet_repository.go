package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WalletRepository is the internal-credit payment rail: Pay credits the
// payee's wallet row inside the caller's transaction, so a failed booking
// rolls the credit back with everything else.
type WalletRepository struct {
	pool *pgxpool.Pool
}

func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func (r *WalletRepository) Pay(ctx context.Context, identity string, amount int64) error {
	if identity == "" || amount <= 0 {
		return fmt.Errorf("pay: bad payee %q or amount %d", identity, amount)
	}

	const stmt = `
INSERT INTO wallets (identity, balance)
VALUES ($1, $2)
ON CONFLICT (identity) DO UPDATE SET balance = wallets.balance + $2`

	if _, err := r.exec(ctx, stmt, identity, amount); err != nil {
		return fmt.Errorf("pay %s: %w", identity, err)
	}
	return nil
}

func (r *WalletRepository) Balance(ctx context.Context, identity string) (int64, error) {
	const query = `SELECT COALESCE(
	(SELECT balance FROM wallets WHERE identity = $1), 0)`

	var balance int64
	if err := r.queryRow(ctx, query, identity).Scan(&balance); err != nil {
		return 0, fmt.Errorf("wallet balance: %w", err)
	}
	return balance, nil
}

func (r *WalletRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *WalletRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
