package postgres

import (
	"context"
	"fmt"

	"github.com/brickstay/stayhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DistributionRepository struct {
	pool *pgxpool.Pool
}

func NewDistributionRepository(pool *pgxpool.Pool) *DistributionRepository {
	return &DistributionRepository{pool: pool}
}

func (r *DistributionRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *DistributionRepository) GetAssetForUpdate(ctx context.Context, assetID int64) (domain.Asset, error) {
	const query = `SELECT id, total_supply, metadata_uri, created_at FROM assets WHERE id = $1 FOR UPDATE`

	var a domain.Asset
	err := r.queryRow(ctx, query, assetID).Scan(&a.ID, &a.TotalSupply, &a.MetadataURI, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Asset{}, domain.ErrUnknownAsset
		}
		return domain.Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

func (r *DistributionRepository) ListHoldings(ctx context.Context, assetID int64) ([]domain.Holding, error) {
	const query = `
SELECT asset_id, holder, balance, position
FROM holdings
WHERE asset_id = $1 AND balance > 0
ORDER BY position`

	rows, err := r.query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	defer rows.Close()
	return scanHoldings(rows)
}

func (r *DistributionRepository) RecordDistribution(ctx context.Context, rec domain.Distribution) error {
	const stmt = `
INSERT INTO distributions (id, asset_id, total_amount, fee_bps, fee, dust, dust_recipient, escrowed, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		rec.ID,
		rec.AssetID,
		rec.TotalAmount,
		rec.FeeBps,
		rec.Fee,
		rec.Dust,
		rec.DustRecipient,
		rec.Escrowed,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record distribution: %w", err)
	}
	return nil
}

// CreditEscrow accumulates undistributable revenue per asset so it is never
// lost.
func (r *DistributionRepository) CreditEscrow(ctx context.Context, assetID int64, amount int64) error {
	const stmt = `
INSERT INTO escrow_pool (asset_id, balance)
VALUES ($1, $2)
ON CONFLICT (asset_id) DO UPDATE SET balance = escrow_pool.balance + $2`

	if _, err := r.exec(ctx, stmt, assetID, amount); err != nil {
		return fmt.Errorf("credit escrow: %w", err)
	}
	return nil
}

func (r *DistributionRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *DistributionRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *DistributionRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
