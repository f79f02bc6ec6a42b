package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/brickstay/stayhub/internal/domain"
	"github.com/brickstay/stayhub/internal/testutil"
	"github.com/google/uuid"
)

func TestDeviceRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewDeviceRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("CreateDeviceLink enforces one device per asset", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAsset(t, ctx, pool, 1, 100)

		link := domain.DeviceLink{DeviceID: "lock-1", AssetID: 1, LinkedBy: "alice", CreatedAt: time.Now().UTC()}
		if err := repo.CreateDeviceLink(ctx, link); err != nil {
			t.Fatalf("create link: %v", err)
		}
		if err := repo.CreateDeviceLink(ctx, link); err != domain.ErrDeviceAlreadyLinked {
			t.Fatalf("expected ErrDeviceAlreadyLinked, got %v", err)
		}

		other := domain.DeviceLink{DeviceID: "lock-2", AssetID: 1, LinkedBy: "alice", CreatedAt: time.Now().UTC()}
		if err := repo.CreateDeviceLink(ctx, other); err != domain.ErrDeviceAlreadyLinked {
			t.Fatalf("expected ErrDeviceAlreadyLinked for same asset, got %v", err)
		}

		got, err := repo.GetDeviceLink(ctx, "lock-1")
		if err != nil {
			t.Fatalf("get link: %v", err)
		}
		if got.AssetID != 1 || got.LinkedBy != "alice" {
			t.Fatalf("unexpected link: %+v", got)
		}

		if _, err := repo.GetDeviceLink(ctx, "lock-9"); err != domain.ErrDeviceNotLinked {
			t.Fatalf("expected ErrDeviceNotLinked, got %v", err)
		}
	})

	t.Run("FindActiveReservation honors the half-open stay window", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAsset(t, ctx, pool, 1, 100)

		checkIn := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		checkOut := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)

		listing := domain.Listing{
			ID: uuid.NewString(), AssetID: 1, Owner: "alice",
			PricePerNight: 100, Active: true, CreatedAt: time.Now().UTC(),
		}
		testutil.InsertListing(t, ctx, pool, listing)
		res := domain.Reservation{
			ID: uuid.NewString(), ListingID: listing.ID, AssetID: 1, Renter: "bob",
			CheckIn: checkIn, CheckOut: checkOut, TotalPrice: 300,
			Status: domain.ReservationStatusActive, CreatedAt: time.Now().UTC(),
		}
		testutil.InsertReservation(t, ctx, pool, res)

		found, err := repo.FindActiveReservation(ctx, 1, "bob", checkIn)
		if err != nil {
			t.Fatalf("find active: %v", err)
		}
		if found == nil || found.ID != res.ID {
			t.Fatalf("expected reservation at check-in, got %+v", found)
		}

		found, err = repo.FindActiveReservation(ctx, 1, "bob", checkOut)
		if err != nil {
			t.Fatalf("find active: %v", err)
		}
		if found != nil {
			t.Fatalf("expected no reservation at check-out, got %+v", found)
		}

		found, err = repo.FindActiveReservation(ctx, 1, "carol", checkIn)
		if err != nil {
			t.Fatalf("find active: %v", err)
		}
		if found != nil {
			t.Fatalf("expected no reservation for carol, got %+v", found)
		}
	})

	t.Run("DeleteDeviceLink", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAsset(t, ctx, pool, 1, 100)

		link := domain.DeviceLink{DeviceID: "lock-1", AssetID: 1, LinkedBy: "alice", CreatedAt: time.Now().UTC()}
		if err := repo.CreateDeviceLink(ctx, link); err != nil {
			t.Fatalf("create link: %v", err)
		}
		if err := repo.DeleteDeviceLink(ctx, "lock-1"); err != nil {
			t.Fatalf("delete link: %v", err)
		}
		if err := repo.DeleteDeviceLink(ctx, "lock-1"); err != domain.ErrDeviceNotLinked {
			t.Fatalf("expected ErrDeviceNotLinked, got %v", err)
		}
	})
}
