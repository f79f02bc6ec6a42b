package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brickstay/stayhub/internal/domain"
)

const (
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeMissingIdentity     = "missing_identity"
	codeInvalidID           = "invalid_id"
	codeUnknownAsset        = "unknown_asset"
	codeAlreadyInitialized  = "already_initialized"
	codeInvalidAmount       = "invalid_amount"
	codeInvalidPrice        = "invalid_price"
	codeInsufficientBalance = "insufficient_balance"
	codeNotAuthorized       = "not_authorized"
	codeListingNotFound     = "listing_not_found"
	codeListingInactive     = "listing_inactive"
	codeAlreadyListed       = "already_listed"
	codeReservationNotFound = "reservation_not_found"
	codeDateConflict        = "date_conflict"
	codeInvalidDateRange    = "invalid_date_range"
	codeInsufficientPayment = "insufficient_payment"
	codeTooLate             = "too_late"
	codeNoHolders           = "no_holders"
	codePaymentFailed       = "payment_failed"
	codeDeviceNotLinked     = "device_not_linked"
	codeDeviceLinked        = "device_already_linked"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps a service error to its HTTP status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, codeInternalError
	msg := err.Error()

	switch {
	case errors.Is(err, domain.ErrUnknownAsset):
		status, code = http.StatusNotFound, codeUnknownAsset
	case errors.Is(err, domain.ErrListingNotFound):
		status, code = http.StatusNotFound, codeListingNotFound
	case errors.Is(err, domain.ErrReservationNotFound):
		status, code = http.StatusNotFound, codeReservationNotFound
	case errors.Is(err, domain.ErrDeviceNotLinked):
		status, code = http.StatusNotFound, codeDeviceNotLinked
	case errors.Is(err, domain.ErrAlreadyInitialized):
		status, code = http.StatusConflict, codeAlreadyInitialized
	case errors.Is(err, domain.ErrDateConflict):
		status, code = http.StatusConflict, codeDateConflict
	case errors.Is(err, domain.ErrDeviceAlreadyLinked):
		status, code = http.StatusConflict, codeDeviceLinked
	case errors.Is(err, domain.ErrListingInactive):
		status, code = http.StatusConflict, codeListingInactive
	case errors.Is(err, domain.ErrAlreadyListed):
		status, code = http.StatusConflict, codeAlreadyListed
	case errors.Is(err, domain.ErrTooLate):
		status, code = http.StatusConflict, codeTooLate
	case errors.Is(err, domain.ErrNoHolders):
		status, code = http.StatusConflict, codeNoHolders
	case errors.Is(err, domain.ErrInsufficientBalance):
		status, code = http.StatusUnprocessableEntity, codeInsufficientBalance
	case errors.Is(err, domain.ErrInsufficientPayment):
		status, code = http.StatusUnprocessableEntity, codeInsufficientPayment
	case errors.Is(err, domain.ErrPaymentFailed):
		status, code = http.StatusBadGateway, codePaymentFailed
	case errors.Is(err, domain.ErrNotAuthorized):
		status, code = http.StatusForbidden, codeNotAuthorized
	case errors.Is(err, domain.ErrInvalidAmount):
		status, code = http.StatusBadRequest, codeInvalidAmount
	case errors.Is(err, domain.ErrInvalidPrice):
		status, code = http.StatusBadRequest, codeInvalidPrice
	case errors.Is(err, domain.ErrInvalidDateRange):
		status, code = http.StatusBadRequest, codeInvalidDateRange
	case errors.Is(err, domain.ErrInvalidID):
		status, code = http.StatusBadRequest, codeInvalidID
	default:
		msg = "internal error"
	}

	writeError(w, status, code, msg)
}
