package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/brickstay/stayhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeviceRepository struct {
	pool *pgxpool.Pool
}

func NewDeviceRepository(pool *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{pool: pool}
}

func (r *DeviceRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *DeviceRepository) LockAsset(ctx context.Context, assetID int64) error {
	return lockAsset(ctx, r.queryRow, assetID)
}

func (r *DeviceRepository) CreateDeviceLink(ctx context.Context, link domain.DeviceLink) error {
	const stmt = `
INSERT INTO device_links (device_id, asset_id, linked_by, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.exec(ctx, stmt, link.DeviceID, link.AssetID, link.LinkedBy, link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDeviceAlreadyLinked
		}
		return fmt.Errorf("create device link: %w", err)
	}
	return nil
}

func (r *DeviceRepository) GetDeviceLink(ctx context.Context, deviceID string) (domain.DeviceLink, error) {
	const query = `SELECT device_id, asset_id, linked_by, created_at FROM device_links WHERE device_id = $1`

	var link domain.DeviceLink
	err := r.queryRow(ctx, query, deviceID).Scan(&link.DeviceID, &link.AssetID, &link.LinkedBy, &link.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.DeviceLink{}, domain.ErrDeviceNotLinked
		}
		return domain.DeviceLink{}, fmt.Errorf("get device link: %w", err)
	}
	return link, nil
}

func (r *DeviceRepository) DeleteDeviceLink(ctx context.Context, deviceID string) error {
	const stmt = `DELETE FROM device_links WHERE device_id = $1`

	tag, err := r.exec(ctx, stmt, deviceID)
	if err != nil {
		return fmt.Errorf("delete device link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeviceNotLinked
	}
	return nil
}

func (r *DeviceRepository) ListDeviceLinks(ctx context.Context) ([]domain.DeviceLink, error) {
	const query = `SELECT device_id, asset_id, linked_by, created_at FROM device_links ORDER BY created_at`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list device links: %w", err)
	}
	defer rows.Close()

	var links []domain.DeviceLink
	for rows.Next() {
		var link domain.DeviceLink
		if err := rows.Scan(&link.DeviceID, &link.AssetID, &link.LinkedBy, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan device link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// FindActiveReservation locates the reservation that grants identity access
// to the asset right now, if any. Backed by the (asset_id, renter, check_in)
// index so it stays cheap under frequent access attempts.
func (r *DeviceRepository) FindActiveReservation(ctx context.Context, assetID int64, renter string, now time.Time) (*domain.Reservation, error) {
	const query = `
SELECT id, listing_id, asset_id, renter, check_in, check_out, total_price, status, created_at
FROM reservations
WHERE asset_id = $1 AND renter = $2 AND status = 'active' AND check_in <= $3 AND $3 < check_out
ORDER BY check_in
LIMIT 1`

	var res domain.Reservation
	var status string
	err := r.queryRow(ctx, query, assetID, renter, now).
		Scan(&res.ID, &res.ListingID, &res.AssetID, &res.Renter, &res.CheckIn, &res.CheckOut, &res.TotalPrice, &status, &res.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active reservation: %w", err)
	}
	res.Status = domain.ReservationStatus(status)
	return &res, nil
}

func (r *DeviceRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *DeviceRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *DeviceRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
