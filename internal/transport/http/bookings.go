package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/brickstay/stayhub/internal/app"
	"github.com/brickstay/stayhub/internal/domain"
	"github.com/go-chi/chi/v5"
)

// BookingAPI is the slice of the booking calendar the reservation handlers
// need.
type BookingAPI interface {
	Book(ctx context.Context, in app.BookInput) (domain.Reservation, error)
	CancelReservation(ctx context.Context, reservationID, caller string) error
	GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error)
	ReservationsByRenter(ctx context.Context, renter string) ([]domain.Reservation, error)
	BookedDays(ctx context.Context, listingID string) ([]time.Time, error)
	DatesAvailable(ctx context.Context, listingID string, checkIn, checkOut time.Time) (bool, error)
}

const dayFormat = "2006-01-02"

func parseDay(s string) (time.Time, bool) {
	t, err := time.Parse(dayFormat, s)
	return t, err == nil
}

// HandleBook returns an HTTP handler for reserving a stay on a listing.
func HandleBook(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req bookRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		checkIn, okIn := parseDay(req.CheckIn)
		checkOut, okOut := parseDay(req.CheckOut)
		if !okIn || !okOut {
			writeError(w, http.StatusBadRequest, codeInvalidDateRange, "check_in and check_out must be YYYY-MM-DD")
			return
		}

		reservation, err := svc.Book(r.Context(), app.BookInput{
			ListingID:     chi.URLParam(r, "listingID"),
			Renter:        identity,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			PaymentAmount: req.PaymentAmount,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReservationResponse(reservation))
	}
}

// HandleCancelReservation cancels an upcoming reservation. Renter or listing
// owner only, and only before check-in.
func HandleCancelReservation(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		if err := svc.CancelReservation(r.Context(), chi.URLParam(r, "reservationID"), identity); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleGetReservation(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reservation, err := svc.GetReservation(r.Context(), chi.URLParam(r, "reservationID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(reservation))
	}
}

// HandleMyReservations lists the calling identity's reservations.
func HandleMyReservations(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		reservations, err := svc.ReservationsByRenter(r.Context(), identity)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]reservationResponse, 0, len(reservations))
		for _, res := range reservations {
			out = append(out, toReservationResponse(res))
		}
		writeJSON(w, http.StatusOK, reservationsResponse{Reservations: out})
	}
}

// HandleBookedDays enumerates a listing's reserved days. With check_in and
// check_out query parameters it instead answers whether the range is free.
func HandleBookedDays(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := chi.URLParam(r, "listingID")
		q := r.URL.Query()

		if q.Get("check_in") != "" || q.Get("check_out") != "" {
			checkIn, okIn := parseDay(q.Get("check_in"))
			checkOut, okOut := parseDay(q.Get("check_out"))
			if !okIn || !okOut {
				writeError(w, http.StatusBadRequest, codeInvalidDateRange, "check_in and check_out must be YYYY-MM-DD")
				return
			}
			available, err := svc.DatesAvailable(r.Context(), listingID, checkIn, checkOut)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, availabilityResponse{Available: available})
			return
		}

		days, err := svc.BookedDays(r.Context(), listingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]string, 0, len(days))
		for _, d := range days {
			out = append(out, d.Format(dayFormat))
		}
		writeJSON(w, http.StatusOK, bookedDaysResponse{Days: out})
	}
}

type bookRequest struct {
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	PaymentAmount int64  `json:"payment_amount"`
}

type reservationResponse struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	AssetID    int64     `json:"asset_id"`
	Renter     string    `json:"renter"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	TotalPrice int64     `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type reservationsResponse struct {
	Reservations []reservationResponse `json:"reservations"`
}

type bookedDaysResponse struct {
	Days []string `json:"days"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:         res.ID,
		ListingID:  res.ListingID,
		AssetID:    res.AssetID,
		Renter:     res.Renter,
		CheckIn:    res.CheckIn.Format(dayFormat),
		CheckOut:   res.CheckOut.Format(dayFormat),
		TotalPrice: res.TotalPrice,
		Status:     string(res.Status),
		CreatedAt:  res.CreatedAt,
	}
}
