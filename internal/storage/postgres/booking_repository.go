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

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *BookingRepository) LockAsset(ctx context.Context, assetID int64) error {
	return lockAsset(ctx, r.queryRow, assetID)
}

func (r *BookingRepository) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	const query = `
SELECT id, asset_id, owner, price_per_night, active, created_at
FROM listings WHERE id = $1`
	return r.scanListing(r.queryRow(ctx, query, listingID))
}

func (r *BookingRepository) GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error) {
	const query = `
SELECT id, asset_id, owner, price_per_night, active, created_at
FROM listings WHERE id = $1 FOR UPDATE`
	return r.scanListing(r.queryRow(ctx, query, listingID))
}

func (r *BookingRepository) scanListing(row pgx.Row) (domain.Listing, error) {
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

func (r *BookingRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, listing_id, asset_id, renter, check_in, check_out, total_price, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.ListingID,
		res.AssetID,
		res.Renter,
		res.CheckIn,
		res.CheckOut,
		res.TotalPrice,
		res.Status,
		res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error) {
	const query = `
SELECT id, listing_id, asset_id, renter, check_in, check_out, total_price, status, created_at
FROM reservations WHERE id = $1`
	return r.scanReservation(r.queryRow(ctx, query, reservationID))
}

func (r *BookingRepository) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error) {
	const query = `
SELECT id, listing_id, asset_id, renter, check_in, check_out, total_price, status, created_at
FROM reservations WHERE id = $1 FOR UPDATE`
	return r.scanReservation(r.queryRow(ctx, query, reservationID))
}

func (r *BookingRepository) scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	var status string
	err := row.Scan(&res.ID, &res.ListingID, &res.AssetID, &res.Renter, &res.CheckIn, &res.CheckOut, &res.TotalPrice, &status, &res.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}

func (r *BookingRepository) UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus) error {
	const stmt = `UPDATE reservations SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, reservationID, status)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// AnyDayBooked tests per-day membership in the listing's booked-day set.
func (r *BookingRepository) AnyDayBooked(ctx context.Context, listingID string, days []time.Time) (bool, error) {
	const query = `SELECT EXISTS (
	SELECT 1 FROM booked_days WHERE listing_id = $1 AND day = ANY($2))`

	var taken bool
	if err := r.queryRow(ctx, query, listingID, days).Scan(&taken); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("any day booked: %w", err)
	}
	return taken, nil
}

// BookDays marks every day of the stay. The unique index on (listing_id,
// day) is the last line of defense against double booking.
func (r *BookingRepository) BookDays(ctx context.Context, listingID, reservationID string, days []time.Time) error {
	const stmt = `
INSERT INTO booked_days (listing_id, reservation_id, day)
SELECT $1::uuid, $2::uuid, unnest($3::timestamptz[])`

	_, err := r.exec(ctx, stmt, listingID, reservationID, days)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDateConflict
		}
		return fmt.Errorf("book days: %w", err)
	}
	return nil
}

func (r *BookingRepository) ReleaseDays(ctx context.Context, reservationID string) error {
	const stmt = `DELETE FROM booked_days WHERE reservation_id = $1`

	if _, err := r.exec(ctx, stmt, reservationID); err != nil {
		return fmt.Errorf("release days: %w", err)
	}
	return nil
}

func (r *BookingRepository) BookedDays(ctx context.Context, listingID string) ([]time.Time, error) {
	const query = `SELECT day FROM booked_days WHERE listing_id = $1 ORDER BY day`

	rows, err := r.query(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("booked days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan booked day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (r *BookingRepository) ReservationsByRenter(ctx context.Context, renter string) ([]domain.Reservation, error) {
	const query = `
SELECT id, listing_id, asset_id, renter, check_in, check_out, total_price, status, created_at
FROM reservations WHERE renter = $1
ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, renter)
	if err != nil {
		return nil, fmt.Errorf("reservations by renter: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *BookingRepository) ReservationsByAsset(ctx context.Context, assetID int64) ([]domain.Reservation, error) {
	const query = `
SELECT id, listing_id, asset_id, renter, check_in, check_out, total_price, status, created_at
FROM reservations WHERE asset_id = $1
ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("reservations by asset: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

func scanReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	var list []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		var status string
		if err := rows.Scan(&res.ID, &res.ListingID, &res.AssetID, &res.Renter, &res.CheckIn, &res.CheckOut, &res.TotalPrice, &status, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		res.Status = domain.ReservationStatus(status)
		list = append(list, res)
	}
	return list, rows.Err()
}

func (r *BookingRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *BookingRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *BookingRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
