package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/brickstay/stayhub/internal/app"
	"github.com/brickstay/stayhub/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ListingAPI is the slice of the booking calendar the listing handlers need.
type ListingAPI interface {
	CreateListing(ctx context.Context, in app.CreateListingInput) (domain.Listing, error)
	CancelListing(ctx context.Context, listingID, caller string) error
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
	ActiveListings(ctx context.Context, assetID *int64) ([]domain.Listing, error)
}

// HandleCreateListing returns an HTTP handler for listing an asset. The
// caller must be the asset's current majority holder.
func HandleCreateListing(svc ListingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req createListingRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		listing, err := svc.CreateListing(r.Context(), app.CreateListingInput{
			AssetID:       req.AssetID,
			Lister:        identity,
			PricePerNight: req.PricePerNight,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toListingResponse(listing))
	}
}

// HandleCancelListing deactivates a listing. Owner only.
func HandleCancelListing(svc ListingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		if err := svc.CancelListing(r.Context(), chi.URLParam(r, "listingID"), identity); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleGetListing(svc ListingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := svc.GetListing(r.Context(), chi.URLParam(r, "listingID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toListingResponse(listing))
	}
}

// HandleActiveListings lists active listings, optionally filtered by the
// asset_id query parameter.
func HandleActiveListings(svc ListingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var assetID *int64
		if raw := r.URL.Query().Get("asset_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeError(w, http.StatusBadRequest, codeInvalidID, "invalid asset_id")
				return
			}
			assetID = &id
		}

		listings, err := svc.ActiveListings(r.Context(), assetID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]listingResponse, 0, len(listings))
		for _, l := range listings {
			out = append(out, toListingResponse(l))
		}
		writeJSON(w, http.StatusOK, listingsResponse{Listings: out})
	}
}

type createListingRequest struct {
	AssetID       int64 `json:"asset_id"`
	PricePerNight int64 `json:"price_per_night"`
}

type listingResponse struct {
	ID            string    `json:"id"`
	AssetID       int64     `json:"asset_id"`
	Owner         string    `json:"owner"`
	PricePerNight int64     `json:"price_per_night"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

type listingsResponse struct {
	Listings []listingResponse `json:"listings"`
}

func toListingResponse(l domain.Listing) listingResponse {
	return listingResponse{
		ID:            l.ID,
		AssetID:       l.AssetID,
		Owner:         l.Owner,
		PricePerNight: l.PricePerNight,
		Active:        l.Active,
		CreatedAt:     l.CreatedAt,
	}
}
