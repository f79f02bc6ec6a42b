package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation is a committed booking of a listing for the half-open day
// range [CheckIn, CheckOut). Completion is never stored: an active
// reservation whose check-out has passed reports itself completed.
type Reservation struct {
	ID         string
	ListingID  string
	AssetID    int64
	Renter     string
	CheckIn    time.Time
	CheckOut   time.Time
	TotalPrice int64
	Status     ReservationStatus
	CreatedAt  time.Time
}

// EffectiveStatus resolves the lazily-computed completion transition.
func (r Reservation) EffectiveStatus(now time.Time) ReservationStatus {
	if r.Status == ReservationStatusActive && !now.Before(r.CheckOut) {
		return ReservationStatusCompleted
	}
	return r.Status
}

// Covers reports whether now falls inside the reservation's stay window.
func (r Reservation) Covers(now time.Time) bool {
	return !now.Before(r.CheckIn) && now.Before(r.CheckOut)
}
