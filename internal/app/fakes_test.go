package app

import (
	"context"
	"fmt"
	"time"

	"github.com/brickstay/stayhub/internal/domain"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. A single
// store backs every repository interface so cross-service flows (booking that
// distributes revenue, transfer that sweeps listings) share state the way the
// database does. WithTx snapshots the store and restores it when the
// transaction function fails, mirroring rollback.
type fakeStore struct {
	txDepth int
	snap    *fakeStore

	assets       map[int64]domain.Asset
	holdings     []domain.Holding
	nextPosition int64
	listings     map[string]domain.Listing
	reservations map[string]domain.Reservation
	bookedDays   map[string]map[time.Time]string
	devices      map[string]domain.DeviceLink
	records      []domain.Distribution
	escrow       map[int64]int64

	wallets      map[string]int64
	failPayments map[string]bool

	// calls records lock-taking operations in order. Survives rollback so
	// tests can assert the locking sequence of a failed transaction too.
	calls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets:       make(map[int64]domain.Asset),
		nextPosition: 1,
		listings:     make(map[string]domain.Listing),
		reservations: make(map[string]domain.Reservation),
		bookedDays:   make(map[string]map[time.Time]string),
		devices:      make(map[string]domain.DeviceLink),
		escrow:       make(map[int64]int64),
		wallets:      make(map[string]int64),
		failPayments: make(map[string]bool),
	}
}

func (f *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for k, v := range f.assets {
		c.assets[k] = v
	}
	c.holdings = append([]domain.Holding(nil), f.holdings...)
	c.nextPosition = f.nextPosition
	for k, v := range f.listings {
		c.listings[k] = v
	}
	for k, v := range f.reservations {
		c.reservations[k] = v
	}
	for listingID, days := range f.bookedDays {
		m := make(map[time.Time]string, len(days))
		for d, resID := range days {
			m[d] = resID
		}
		c.bookedDays[listingID] = m
	}
	for k, v := range f.devices {
		c.devices[k] = v
	}
	c.records = append([]domain.Distribution(nil), f.records...)
	for k, v := range f.escrow {
		c.escrow[k] = v
	}
	for k, v := range f.wallets {
		c.wallets[k] = v
	}
	for k, v := range f.failPayments {
		c.failPayments[k] = v
	}
	return c
}

func (f *fakeStore) restore(s *fakeStore) {
	f.assets = s.assets
	f.holdings = s.holdings
	f.nextPosition = s.nextPosition
	f.listings = s.listings
	f.reservations = s.reservations
	f.bookedDays = s.bookedDays
	f.devices = s.devices
	f.records = s.records
	f.escrow = s.escrow
	f.wallets = s.wallets
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.txDepth == 0 {
		f.snap = f.clone()
	}
	f.txDepth++
	err := fn(ctx)
	f.txDepth--
	if err != nil && f.txDepth == 0 {
		f.restore(f.snap)
	}
	if f.txDepth == 0 {
		f.snap = nil
	}
	return err
}

func (f *fakeStore) LockAsset(_ context.Context, assetID int64) error {
	f.calls = append(f.calls, "LockAsset")
	if _, ok := f.assets[assetID]; !ok {
		return domain.ErrUnknownAsset
	}
	return nil
}

func (f *fakeStore) CreateAsset(_ context.Context, asset domain.Asset) error {
	if _, ok := f.assets[asset.ID]; ok {
		return domain.ErrAlreadyInitialized
	}
	f.assets[asset.ID] = asset
	return nil
}

func (f *fakeStore) GetAsset(_ context.Context, assetID int64) (domain.Asset, error) {
	asset, ok := f.assets[assetID]
	if !ok {
		return domain.Asset{}, domain.ErrUnknownAsset
	}
	return asset, nil
}

func (f *fakeStore) GetAssetForUpdate(ctx context.Context, assetID int64) (domain.Asset, error) {
	return f.GetAsset(ctx, assetID)
}

func (f *fakeStore) GetBalance(_ context.Context, assetID int64, holder string) (int64, error) {
	for _, h := range f.holdings {
		if h.AssetID == assetID && h.Holder == holder {
			return h.Balance, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) AddToBalance(_ context.Context, assetID int64, holder string, delta int64) error {
	for i, h := range f.holdings {
		if h.AssetID == assetID && h.Holder == holder {
			f.holdings[i].Balance += delta
			return nil
		}
	}
	f.holdings = append(f.holdings, domain.Holding{
		AssetID:  assetID,
		Holder:   holder,
		Balance:  delta,
		Position: f.nextPosition,
	})
	f.nextPosition++
	return nil
}

func (f *fakeStore) ListHoldings(_ context.Context, assetID int64) ([]domain.Holding, error) {
	var out []domain.Holding
	for _, h := range f.holdings {
		if h.AssetID == assetID && h.Balance > 0 {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) TopHolder(_ context.Context, assetID int64) (domain.Holding, bool, error) {
	var top domain.Holding
	found := false
	for _, h := range f.holdings {
		if h.AssetID != assetID || h.Balance <= 0 {
			continue
		}
		if !found || h.Balance > top.Balance || (h.Balance == top.Balance && h.Position < top.Position) {
			top = h
			found = true
		}
	}
	return top, found, nil
}

func (f *fakeStore) HoldingsOf(_ context.Context, holder string) ([]domain.Holding, error) {
	var out []domain.Holding
	for _, h := range f.holdings {
		if h.Holder == holder && h.Balance > 0 {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateListing(_ context.Context, listing domain.Listing) error {
	for _, existing := range f.listings {
		if existing.AssetID == listing.AssetID && existing.Owner == listing.Owner && existing.Active {
			return domain.ErrAlreadyListed
		}
	}
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeStore) GetListing(_ context.Context, listingID string) (domain.Listing, error) {
	listing, ok := f.listings[listingID]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return listing, nil
}

func (f *fakeStore) GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error) {
	f.calls = append(f.calls, "GetListingForUpdate")
	return f.GetListing(ctx, listingID)
}

func (f *fakeStore) DeactivateListing(_ context.Context, listingID string) error {
	listing, ok := f.listings[listingID]
	if !ok {
		return domain.ErrListingNotFound
	}
	listing.Active = false
	f.listings[listingID] = listing
	return nil
}

func (f *fakeStore) DeactivateListingsByOwner(_ context.Context, assetID int64, owner string) ([]domain.Listing, error) {
	var swept []domain.Listing
	for id, listing := range f.listings {
		if listing.AssetID == assetID && listing.Owner == owner && listing.Active {
			listing.Active = false
			f.listings[id] = listing
			swept = append(swept, listing)
		}
	}
	return swept, nil
}

func (f *fakeStore) ListActive(_ context.Context) ([]domain.Listing, error) {
	var out []domain.Listing
	for _, listing := range f.listings {
		if listing.Active {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActiveByAsset(_ context.Context, assetID int64) ([]domain.Listing, error) {
	var out []domain.Listing
	for _, listing := range f.listings {
		if listing.Active && listing.AssetID == assetID {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateReservation(_ context.Context, res domain.Reservation) error {
	f.reservations[res.ID] = res
	return nil
}

func (f *fakeStore) GetReservation(_ context.Context, reservationID string) (domain.Reservation, error) {
	res, ok := f.reservations[reservationID]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (f *fakeStore) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error) {
	return f.GetReservation(ctx, reservationID)
}

func (f *fakeStore) UpdateReservationStatus(_ context.Context, reservationID string, status domain.ReservationStatus) error {
	res, ok := f.reservations[reservationID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	res.Status = status
	f.reservations[reservationID] = res
	return nil
}

func (f *fakeStore) AnyDayBooked(_ context.Context, listingID string, days []time.Time) (bool, error) {
	booked := f.bookedDays[listingID]
	for _, d := range days {
		if _, ok := booked[d]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) BookDays(_ context.Context, listingID, reservationID string, days []time.Time) error {
	booked := f.bookedDays[listingID]
	if booked == nil {
		booked = make(map[time.Time]string)
		f.bookedDays[listingID] = booked
	}
	for _, d := range days {
		if _, ok := booked[d]; ok {
			return domain.ErrDateConflict
		}
		booked[d] = reservationID
	}
	return nil
}

func (f *fakeStore) ReleaseDays(_ context.Context, reservationID string) error {
	for _, booked := range f.bookedDays {
		for d, resID := range booked {
			if resID == reservationID {
				delete(booked, d)
			}
		}
	}
	return nil
}

func (f *fakeStore) BookedDays(_ context.Context, listingID string) ([]time.Time, error) {
	var out []time.Time
	for d := range f.bookedDays[listingID] {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) ReservationsByRenter(_ context.Context, renter string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.Renter == renter {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeStore) ReservationsByAsset(_ context.Context, assetID int64) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.AssetID == assetID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordDistribution(_ context.Context, rec domain.Distribution) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) CreditEscrow(_ context.Context, assetID int64, amount int64) error {
	f.escrow[assetID] += amount
	return nil
}

func (f *fakeStore) CreateDeviceLink(_ context.Context, link domain.DeviceLink) error {
	if _, ok := f.devices[link.DeviceID]; ok {
		return domain.ErrDeviceAlreadyLinked
	}
	for _, existing := range f.devices {
		if existing.AssetID == link.AssetID {
			return domain.ErrDeviceAlreadyLinked
		}
	}
	f.devices[link.DeviceID] = link
	return nil
}

func (f *fakeStore) GetDeviceLink(_ context.Context, deviceID string) (domain.DeviceLink, error) {
	link, ok := f.devices[deviceID]
	if !ok {
		return domain.DeviceLink{}, domain.ErrDeviceNotLinked
	}
	return link, nil
}

func (f *fakeStore) DeleteDeviceLink(_ context.Context, deviceID string) error {
	if _, ok := f.devices[deviceID]; !ok {
		return domain.ErrDeviceNotLinked
	}
	delete(f.devices, deviceID)
	return nil
}

func (f *fakeStore) ListDeviceLinks(_ context.Context) ([]domain.DeviceLink, error) {
	var out []domain.DeviceLink
	for _, link := range f.devices {
		out = append(out, link)
	}
	return out, nil
}

func (f *fakeStore) FindActiveReservation(_ context.Context, assetID int64, renter string, now time.Time) (*domain.Reservation, error) {
	for _, res := range f.reservations {
		if res.AssetID == assetID && res.Renter == renter && res.Status == domain.ReservationStatusActive && res.Covers(now) {
			r := res
			return &r, nil
		}
	}
	return nil, nil
}

// Pay implements the Payer interface. Identities listed in failPayments
// reject the payment, which lets tests exercise mid-distribution aborts.
func (f *fakeStore) Pay(_ context.Context, identity string, amount int64) error {
	if f.failPayments[identity] {
		return fmt.Errorf("payment rejected for %s", identity)
	}
	f.wallets[identity] += amount
	return nil
}

// seqIDs returns a deterministic ID generator for tests.
func seqIDs(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
