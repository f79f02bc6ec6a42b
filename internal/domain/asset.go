package domain

import "time"

// Asset is a rentable property divided into a fixed number of ownership units.
// TotalSupply is set once at initialization and never changes.
type Asset struct {
	ID          int64
	TotalSupply int64
	MetadataURI string
	CreatedAt   time.Time
}
