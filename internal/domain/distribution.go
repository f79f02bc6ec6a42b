package domain

import "time"

// Distribution is the audit record of one revenue split.
type Distribution struct {
	ID            string
	AssetID       int64
	TotalAmount   int64
	FeeBps        int64
	Fee           int64
	Dust          int64
	DustRecipient string
	Escrowed      int64
	CreatedAt     time.Time
}
