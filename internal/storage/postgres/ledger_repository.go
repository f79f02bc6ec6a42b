package postgres

import (
	"context"
	"fmt"

	"github.com/brickstay/stayhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *LedgerRepository) CreateAsset(ctx context.Context, asset domain.Asset) error {
	const stmt = `
INSERT INTO assets (id, total_supply, metadata_uri, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.exec(ctx, stmt, asset.ID, asset.TotalSupply, asset.MetadataURI, asset.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyInitialized
		}
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetAsset(ctx context.Context, assetID int64) (domain.Asset, error) {
	const query = `SELECT id, total_supply, metadata_uri, created_at FROM assets WHERE id = $1`
	return r.scanAsset(r.queryRow(ctx, query, assetID))
}

func (r *LedgerRepository) GetAssetForUpdate(ctx context.Context, assetID int64) (domain.Asset, error) {
	const query = `SELECT id, total_supply, metadata_uri, created_at FROM assets WHERE id = $1 FOR UPDATE`
	return r.scanAsset(r.queryRow(ctx, query, assetID))
}

func (r *LedgerRepository) scanAsset(row pgx.Row) (domain.Asset, error) {
	var a domain.Asset
	err := row.Scan(&a.ID, &a.TotalSupply, &a.MetadataURI, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Asset{}, domain.ErrUnknownAsset
		}
		return domain.Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

func (r *LedgerRepository) GetBalance(ctx context.Context, assetID int64, holder string) (int64, error) {
	const query = `SELECT COALESCE(
	(SELECT balance FROM holdings WHERE asset_id = $1 AND holder = $2), 0)`

	var balance int64
	if err := r.queryRow(ctx, query, assetID, holder).Scan(&balance); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// AddToBalance upserts the holding row. First-time holders get a position
// from the global sequence, which fixes the tie-break order forever.
func (r *LedgerRepository) AddToBalance(ctx context.Context, assetID int64, holder string, delta int64) error {
	const stmt = `
INSERT INTO holdings (asset_id, holder, balance)
VALUES ($1, $2, $3)
ON CONFLICT (asset_id, holder) DO UPDATE SET balance = holdings.balance + $3`

	if _, err := r.exec(ctx, stmt, assetID, holder, delta); err != nil {
		return fmt.Errorf("add to balance: %w", err)
	}
	return nil
}

func (r *LedgerRepository) ListHoldings(ctx context.Context, assetID int64) ([]domain.Holding, error) {
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

func (r *LedgerRepository) TopHolder(ctx context.Context, assetID int64) (domain.Holding, bool, error) {
	const query = `
SELECT asset_id, holder, balance, position
FROM holdings
WHERE asset_id = $1 AND balance > 0
ORDER BY balance DESC, position ASC
LIMIT 1`

	var h domain.Holding
	err := r.queryRow(ctx, query, assetID).Scan(&h.AssetID, &h.Holder, &h.Balance, &h.Position)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Holding{}, false, nil
		}
		return domain.Holding{}, false, fmt.Errorf("top holder: %w", err)
	}
	return h, true, nil
}

func (r *LedgerRepository) HoldingsOf(ctx context.Context, holder string) ([]domain.Holding, error) {
	const query = `
SELECT asset_id, holder, balance, position
FROM holdings
WHERE holder = $1 AND balance > 0
ORDER BY asset_id`

	rows, err := r.query(ctx, query, holder)
	if err != nil {
		return nil, fmt.Errorf("holdings of: %w", err)
	}
	defer rows.Close()
	return scanHoldings(rows)
}

func scanHoldings(rows pgx.Rows) ([]domain.Holding, error) {
	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.AssetID, &h.Holder, &h.Balance, &h.Position); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (r *LedgerRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *LedgerRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *LedgerRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
