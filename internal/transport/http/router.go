package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig carries the services and settings the HTTP surface needs.
type RouterConfig struct {
	Ledger         LedgerAPI
	Distributor    DistributorAPI
	Listings       ListingAPI
	Bookings       BookingAPI
	Access         AccessAPI
	PlatformFeeBps int64
	FeeAccount     string
}

// NewRouter wires every route of the API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.NotFound(NotFoundHandler().ServeHTTP)

	r.Get("/health", HealthHandler)

	r.Route("/assets", func(r chi.Router) {
		r.Post("/", HandleInitializeAsset(cfg.Ledger))
		r.Route("/{assetID}", func(r chi.Router) {
			r.Post("/transfers", HandleTransfer(cfg.Ledger))
			r.Get("/holdings", HandleHoldings(cfg.Ledger))
			r.Get("/holdings/{holder}", HandleBalance(cfg.Ledger))
			r.Get("/majority-holder", HandleMajorityHolder(cfg.Ledger))
			r.Post("/distributions", HandleDistribute(cfg.Distributor, cfg.PlatformFeeBps, cfg.FeeAccount))
		})
	})

	r.Get("/holdings", HandleMyHoldings(cfg.Ledger))

	r.Route("/listings", func(r chi.Router) {
		r.Post("/", HandleCreateListing(cfg.Listings))
		r.Get("/", HandleActiveListings(cfg.Listings))
		r.Route("/{listingID}", func(r chi.Router) {
			r.Get("/", HandleGetListing(cfg.Listings))
			r.Delete("/", HandleCancelListing(cfg.Listings))
			r.Post("/reservations", HandleBook(cfg.Bookings))
			r.Get("/booked-days", HandleBookedDays(cfg.Bookings))
		})
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", HandleMyReservations(cfg.Bookings))
		r.Get("/{reservationID}", HandleGetReservation(cfg.Bookings))
		r.Delete("/{reservationID}", HandleCancelReservation(cfg.Bookings))
	})

	r.Route("/devices", func(r chi.Router) {
		r.Post("/", HandleLinkDevice(cfg.Access))
		r.Get("/", HandleListDeviceLinks(cfg.Access))
		r.Delete("/{deviceID}", HandleUnlinkDevice(cfg.Access))
		r.Post("/{deviceID}/authorize", HandleAuthorize(cfg.Access))
	})

	return r
}
