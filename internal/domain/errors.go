package domain

import "errors"

var (
	ErrUnknownAsset        = errors.New("unknown asset")
	ErrAlreadyInitialized  = errors.New("asset already initialized")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingInactive     = errors.New("listing is not active")
	ErrAlreadyListed       = errors.New("an active listing already exists for this owner")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrDateConflict        = errors.New("date conflict")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrTooLate             = errors.New("too late to cancel")
	ErrNoHolders           = errors.New("no holders")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrDeviceNotLinked     = errors.New("device not linked")
	ErrDeviceAlreadyLinked = errors.New("device already linked")
	ErrInvalidID           = errors.New("invalid id")
)
