package app

import (
	"context"
	"fmt"
	"time"

	"github.com/brickstay/stayhub/internal/clock"
	"github.com/brickstay/stayhub/internal/domain"
	"github.com/brickstay/stayhub/internal/events"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockAsset(ctx context.Context, assetID int64) error
	GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error)
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
	GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error)
	GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus) error
	AnyDayBooked(ctx context.Context, listingID string, days []time.Time) (bool, error)
	BookDays(ctx context.Context, listingID, reservationID string, days []time.Time) error
	ReleaseDays(ctx context.Context, reservationID string) error
	BookedDays(ctx context.Context, listingID string) ([]time.Time, error)
	ReservationsByRenter(ctx context.Context, renter string) ([]domain.Reservation, error)
	ReservationsByAsset(ctx context.Context, assetID int64) ([]domain.Reservation, error)
}

// Distributor is the slice of the revenue distributor the calendar invokes
// at payment time, inside the booking transaction.
type Distributor interface {
	Distribute(ctx context.Context, in DistributeInput) (DistributionReport, error)
}

// BookingService commits reservations against listing calendars. A booking
// is atomic: days are marked, the reservation is written and the payment is
// distributed in one transaction, or none of it happens.
type BookingService struct {
	repo           BookingRepository
	distributor    Distributor
	payer          Payer
	clock          clock.Clock
	publisher      events.Publisher
	newID          IDGenerator
	platformFeeBps int64
	feeAccount     string
}

func NewBookingService(repo BookingRepository, distributor Distributor, payer Payer, clk clock.Clock, pub events.Publisher, newID IDGenerator, platformFeeBps int64, feeAccount string) *BookingService {
	return &BookingService{
		repo:           repo,
		distributor:    distributor,
		payer:          payer,
		clock:          clk,
		publisher:      pub,
		newID:          newID,
		platformFeeBps: platformFeeBps,
		feeAccount:     feeAccount,
	}
}

type BookInput struct {
	ListingID     string
	Renter        string
	CheckIn       time.Time
	CheckOut      time.Time
	PaymentAmount int64
}

func (s *BookingService) Book(ctx context.Context, in BookInput) (domain.Reservation, error) {
	if in.Renter == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	checkIn := domain.Day(in.CheckIn)
	checkOut := domain.Day(in.CheckOut)

	var reservation domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		// Resolve the asset before taking any row lock: transfers lock the
		// asset first and then touch listings, so bookings must do the same.
		resolved, err := s.repo.GetListing(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if err := s.repo.LockAsset(txCtx, resolved.AssetID); err != nil {
			return err
		}
		listing, err := s.repo.GetListingForUpdate(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if !listing.Active {
			return domain.ErrListingInactive
		}
		if !checkIn.Before(checkOut) || checkIn.Before(domain.Day(now)) {
			return domain.ErrInvalidDateRange
		}
		if in.Renter == listing.Owner {
			return domain.ErrNotAuthorized
		}

		days := domain.DaysBetween(checkIn, checkOut)
		taken, err := s.repo.AnyDayBooked(txCtx, in.ListingID, days)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDateConflict
		}

		total := int64(len(days)) * listing.PricePerNight
		if in.PaymentAmount < total {
			return domain.ErrInsufficientPayment
		}

		reservation = domain.Reservation{
			ID:         s.newID(),
			ListingID:  listing.ID,
			AssetID:    listing.AssetID,
			Renter:     in.Renter,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			TotalPrice: total,
			Status:     domain.ReservationStatusActive,
			CreatedAt:  now,
		}

		if err := s.repo.BookDays(txCtx, listing.ID, reservation.ID, days); err != nil {
			return err
		}
		if err := s.repo.CreateReservation(txCtx, reservation); err != nil {
			return err
		}

		if excess := in.PaymentAmount - total; excess > 0 {
			if err := s.payer.Pay(txCtx, in.Renter, excess); err != nil {
				return fmt.Errorf("%w: refund %s: %v", domain.ErrPaymentFailed, in.Renter, err)
			}
		}

		_, err = s.distributor.Distribute(txCtx, DistributeInput{
			AssetID:      listing.AssetID,
			TotalAmount:  total,
			FeeBps:       s.platformFeeBps,
			FeeRecipient: s.feeAccount,
		})
		return err
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	_ = s.publisher.Publish(ctx, events.KeyBooked, events.Booked{
		ReservationID: reservation.ID,
		ListingID:     reservation.ListingID,
		AssetID:       reservation.AssetID,
		Renter:        reservation.Renter,
		CheckIn:       reservation.CheckIn,
		CheckOut:      reservation.CheckOut,
		TotalPrice:    reservation.TotalPrice,
		At:            now,
	})
	return reservation, nil
}

// CancelReservation frees the reservation's days and marks it cancelled.
// Only the renter or the listing owner may cancel, and only before check-in.
// No refund is issued here; the emitted event carries the price so a higher
// layer can decide.
func (s *BookingService) CancelReservation(ctx context.Context, reservationID, caller string) error {
	now := s.clock.Now()
	var reservation domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		reservation, err = s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		listing, err := s.repo.GetListing(txCtx, reservation.ListingID)
		if err != nil {
			return err
		}
		if caller != reservation.Renter && caller != listing.Owner {
			return domain.ErrNotAuthorized
		}
		if reservation.Status != domain.ReservationStatusActive || !now.Before(reservation.CheckIn) {
			return domain.ErrTooLate
		}
		if err := s.repo.ReleaseDays(txCtx, reservationID); err != nil {
			return err
		}
		return s.repo.UpdateReservationStatus(txCtx, reservationID, domain.ReservationStatusCancelled)
	})
	if err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, events.KeyReservationCancelled, events.ReservationCancelled{
		ReservationID: reservation.ID,
		ListingID:     reservation.ListingID,
		Renter:        reservation.Renter,
		TotalPrice:    reservation.TotalPrice,
		At:            now,
	})
	return nil
}

// GetReservation resolves the lazily-computed completion status.
func (s *BookingService) GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error) {
	res, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.Status = res.EffectiveStatus(s.clock.Now())
	return res, nil
}

func (s *BookingService) ReservationsByRenter(ctx context.Context, renter string) ([]domain.Reservation, error) {
	return s.effective(s.repo.ReservationsByRenter(ctx, renter))
}

func (s *BookingService) ReservationsByAsset(ctx context.Context, assetID int64) ([]domain.Reservation, error) {
	return s.effective(s.repo.ReservationsByAsset(ctx, assetID))
}

// BookedDays enumerates a listing's reserved days for calendar display.
func (s *BookingService) BookedDays(ctx context.Context, listingID string) ([]time.Time, error) {
	if _, err := s.repo.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.BookedDays(ctx, listingID)
}

// DatesAvailable probes whether [checkIn, checkOut) is free on a listing.
func (s *BookingService) DatesAvailable(ctx context.Context, listingID string, checkIn, checkOut time.Time) (bool, error) {
	days := domain.DaysBetween(checkIn, checkOut)
	if len(days) == 0 {
		return false, domain.ErrInvalidDateRange
	}
	if _, err := s.repo.GetListing(ctx, listingID); err != nil {
		return false, err
	}
	taken, err := s.repo.AnyDayBooked(ctx, listingID, days)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *BookingService) effective(list []domain.Reservation, err error) ([]domain.Reservation, error) {
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for i := range list {
		list[i].Status = list[i].EffectiveStatus(now)
	}
	return list, nil
}
