package postgres

import (
	"context"
	"fmt"

	"github.com/brickstay/stayhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

func (r *ListingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockAsset takes the per-asset row lock so listing mutations serialize with
// transfers and bookings on the same asset.
func (r *ListingRepository) LockAsset(ctx context.Context, assetID int64) error {
	return lockAsset(ctx, r.queryRow, assetID)
}

func (r *ListingRepository) CreateListing(ctx context.Context, listing domain.Listing) error {
	const stmt = `
INSERT INTO listings (id, asset_id, owner, price_per_night, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt,
		listing.ID,
		listing.AssetID,
		listing.Owner,
		listing.PricePerNight,
		listing.Active,
		listing.CreatedAt,
	)
	if err != nil {
		// One active listing per (asset, owner): enforced by the partial
		// unique index listings_one_active_per_owner.
		if isUniqueViolation(err) {
			return domain.ErrAlreadyListed
		}
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	const query = `
SELECT id, asset_id, owner, price_per_night, active, created_at
FROM listings WHERE id = $1`
	return r.scanListing(r.queryRow(ctx, query, listingID))
}

func (r *ListingRepository) GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error) {
	const query = `
SELECT id, asset_id, owner, price_per_night, active, created_at
FROM listings WHERE id = $1 FOR UPDATE`
	return r.scanListing(r.queryRow(ctx, query, listingID))
}

func (r *ListingRepository) scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(&l.ID, &l.AssetID, &l.Owner, &l.PricePerNight, &l.Active, &l.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Listing{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Listing{}, domain.ErrListingNotFound
		}
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) DeactivateListing(ctx context.Context, listingID string) error {
	const stmt = `UPDATE listings SET active = FALSE WHERE id = $1`

	tag, err := r.exec(ctx, stmt, listingID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("deactivate listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// DeactivateListingsByOwner sweeps all active listings a holder has on an
// asset and returns them. Zero matches is not an error.
func (r *ListingRepository) DeactivateListingsByOwner(ctx context.Context, assetID int64, owner string) ([]domain.Listing, error) {
	const stmt = `
UPDATE listings SET active = FALSE
WHERE asset_id = $1 AND owner = $2 AND active
RETURNING id, asset_id, owner, price_per_night, active, created_at`

	rows, err := r.query(ctx, stmt, assetID, owner)
	if err != nil {
		return nil, fmt.Errorf("deactivate listings by owner: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *ListingRepository) ListActive(ctx context.Context) ([]domain.Listing, error) {
	const query = `
SELECT id, asset_id, owner, price_per_night, active, created_at
FROM listings WHERE active
ORDER BY created_at DESC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *ListingRepository) ListActiveByAsset(ctx context.Context, assetID int64) ([]domain.Listing, error) {
	const query = `
SELECT id, asset_id, owner, price_per_night, active, created_at
FROM listings WHERE asset_id = $1 AND active
ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("list active listings by asset: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

func scanListings(rows pgx.Rows) ([]domain.Listing, error) {
	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(&l.ID, &l.AssetID, &l.Owner, &l.PricePerNight, &l.Active, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (r *ListingRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ListingRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ListingRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
