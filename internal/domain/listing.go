package domain

import "time"

// Listing is an offer by an asset's majority holder to rent the asset out
// at a nightly price. Listings are deactivated, never deleted.
type Listing struct {
	ID            string
	AssetID       int64
	Owner         string
	PricePerNight int64
	Active        bool
	CreatedAt     time.Time
}
