package app

import "github.com/google/uuid"

// IDGenerator produces ids for listings, reservations and distributions.
// Injected so tests can use predictable ids.
type IDGenerator func() string

// NewUUID is the production generator.
func NewUUID() string {
	return uuid.NewString()
}
