package app

import (
	"context"

	"github.com/brickstay/stayhub/internal/clock"
	"github.com/brickstay/stayhub/internal/domain"
	"github.com/brickstay/stayhub/internal/events"
)

type ListingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockAsset(ctx context.Context, assetID int64) error
	CreateListing(ctx context.Context, listing domain.Listing) error
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
	GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error)
	DeactivateListing(ctx context.Context, listingID string) error
	DeactivateListingsByOwner(ctx context.Context, assetID int64, owner string) ([]domain.Listing, error)
	ListActive(ctx context.Context) ([]domain.Listing, error)
	ListActiveByAsset(ctx context.Context, assetID int64) ([]domain.Listing, error)
}

// MajorityResolver is the slice of the ledger the calendar needs: an
// authoritative majority-holder read that joins the caller's transaction.
type MajorityResolver interface {
	CurrentMajorityHolder(ctx context.Context, assetID int64) (domain.Holding, error)
}

// ListingService manages rental listings. Only the current majority holder
// of an asset may list it, and a listing dies with its owner's majority.
type ListingService struct {
	repo      ListingRepository
	ledger    MajorityResolver
	clock     clock.Clock
	publisher events.Publisher
	newID     IDGenerator
}

func NewListingService(repo ListingRepository, ledger MajorityResolver, clk clock.Clock, pub events.Publisher, newID IDGenerator) *ListingService {
	return &ListingService{
		repo:      repo,
		ledger:    ledger,
		clock:     clk,
		publisher: pub,
		newID:     newID,
	}
}

type CreateListingInput struct {
	AssetID       int64
	Lister        string
	PricePerNight int64
}

func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (domain.Listing, error) {
	if in.PricePerNight <= 0 {
		return domain.Listing{}, domain.ErrInvalidPrice
	}
	if in.Lister == "" {
		return domain.Listing{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	listing := domain.Listing{
		ID:            s.newID(),
		AssetID:       in.AssetID,
		Owner:         in.Lister,
		PricePerNight: in.PricePerNight,
		Active:        true,
		CreatedAt:     now,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockAsset(txCtx, in.AssetID); err != nil {
			return err
		}
		majority, err := s.ledger.CurrentMajorityHolder(txCtx, in.AssetID)
		if err != nil {
			if err == domain.ErrNoHolders {
				return domain.ErrNotAuthorized
			}
			return err
		}
		if majority.Holder != in.Lister {
			return domain.ErrNotAuthorized
		}
		return s.repo.CreateListing(txCtx, listing)
	})
	if err != nil {
		return domain.Listing{}, err
	}

	_ = s.publisher.Publish(ctx, events.KeyListingCreated, events.ListingCreated{
		ListingID:     listing.ID,
		AssetID:       listing.AssetID,
		Owner:         listing.Owner,
		PricePerNight: listing.PricePerNight,
		At:            now,
	})
	return listing, nil
}

func (s *ListingService) CancelListing(ctx context.Context, listingID, caller string) error {
	var listing domain.Listing
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		// Asset lock first, matching the order transfers and bookings use.
		resolved, err := s.repo.GetListing(txCtx, listingID)
		if err != nil {
			return err
		}
		if err := s.repo.LockAsset(txCtx, resolved.AssetID); err != nil {
			return err
		}
		listing, err = s.repo.GetListingForUpdate(txCtx, listingID)
		if err != nil {
			return err
		}
		if listing.Owner != caller {
			return domain.ErrNotAuthorized
		}
		if !listing.Active {
			return domain.ErrListingInactive
		}
		return s.repo.DeactivateListing(txCtx, listingID)
	})
	if err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, events.KeyListingDeactivated, events.ListingDeactivated{
		ListingID: listing.ID,
		AssetID:   listing.AssetID,
		Owner:     listing.Owner,
		Reason:    "cancelled",
		At:        s.clock.Now(),
	})
	return nil
}

// OnOwnershipChanged deactivates every active listing the previous majority
// holder had on the asset. Idempotent: zero matches is a no-op. Runs inside
// the ledger's transfer transaction via the tx carried in ctx.
func (s *ListingService) OnOwnershipChanged(ctx context.Context, assetID int64, previous, _ string) error {
	if previous == "" {
		return nil
	}
	swept, err := s.repo.DeactivateListingsByOwner(ctx, assetID, previous)
	if err != nil {
		return err
	}
	for _, listing := range swept {
		_ = s.publisher.Publish(ctx, events.KeyListingDeactivated, events.ListingDeactivated{
			ListingID: listing.ID,
			AssetID:   listing.AssetID,
			Owner:     listing.Owner,
			Reason:    "majority_changed",
			At:        s.clock.Now(),
		})
	}
	return nil
}

func (s *ListingService) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	return s.repo.GetListing(ctx, listingID)
}

// ActiveListings lists active listings, optionally filtered to one asset.
func (s *ListingService) ActiveListings(ctx context.Context, assetID *int64) ([]domain.Listing, error) {
	if assetID != nil {
		return s.repo.ListActiveByAsset(ctx, *assetID)
	}
	return s.repo.ListActive(ctx)
}
