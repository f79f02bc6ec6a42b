package events

import "time"

// Routing keys for the topic exchange.
const (
	KeyAssetInitialized     = "asset.initialized"
	KeyOwnershipChanged     = "asset.ownership_changed"
	KeyListingCreated       = "listing.created"
	KeyListingDeactivated   = "listing.deactivated"
	KeyBooked               = "reservation.booked"
	KeyReservationCancelled = "reservation.cancelled"
	KeyDistributed          = "revenue.distributed"
)

type AssetInitialized struct {
	AssetID     int64     `json:"asset_id"`
	Creator     string    `json:"creator"`
	TotalSupply int64     `json:"total_supply"`
	At          time.Time `json:"at"`
}

type OwnershipChanged struct {
	AssetID          int64     `json:"asset_id"`
	PreviousMajority string    `json:"previous_majority"`
	NewMajority      string    `json:"new_majority"`
	At               time.Time `json:"at"`
}

type ListingCreated struct {
	ListingID     string    `json:"listing_id"`
	AssetID       int64     `json:"asset_id"`
	Owner         string    `json:"owner"`
	PricePerNight int64     `json:"price_per_night"`
	At            time.Time `json:"at"`
}

type ListingDeactivated struct {
	ListingID string    `json:"listing_id"`
	AssetID   int64     `json:"asset_id"`
	Owner     string    `json:"owner"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

type Booked struct {
	ReservationID string    `json:"reservation_id"`
	ListingID     string    `json:"listing_id"`
	AssetID       int64     `json:"asset_id"`
	Renter        string    `json:"renter"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	TotalPrice    int64     `json:"total_price"`
	At            time.Time `json:"at"`
}

type ReservationCancelled struct {
	ReservationID string    `json:"reservation_id"`
	ListingID     string    `json:"listing_id"`
	Renter        string    `json:"renter"`
	TotalPrice    int64     `json:"total_price"`
	At            time.Time `json:"at"`
}

type Payout struct {
	Holder string `json:"holder"`
	Amount int64  `json:"amount"`
}

type Distributed struct {
	AssetID     int64     `json:"asset_id"`
	TotalAmount int64     `json:"total_amount"`
	Fee         int64     `json:"fee"`
	Dust        int64     `json:"dust"`
	Payouts     []Payout  `json:"payouts"`
	At          time.Time `json:"at"`
}
