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

// AccessAPI is the slice of the access authorizer the device handlers need.
type AccessAPI interface {
	LinkDevice(ctx context.Context, in app.LinkDeviceInput) (domain.DeviceLink, error)
	UnlinkDevice(ctx context.Context, deviceID, caller string) error
	Authorize(ctx context.Context, deviceID, identity string) (bool, string, error)
	ListDeviceLinks(ctx context.Context) ([]domain.DeviceLink, error)
}

// HandleLinkDevice binds a smart-lock device to an asset. Majority holder
// only.
func HandleLinkDevice(svc AccessAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req linkDeviceRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		link, err := svc.LinkDevice(r.Context(), app.LinkDeviceInput{
			DeviceID: req.DeviceID,
			AssetID:  req.AssetID,
			Caller:   identity,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDeviceLinkResponse(link))
	}
}

func HandleUnlinkDevice(svc AccessAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		if err := svc.UnlinkDevice(r.Context(), chi.URLParam(r, "deviceID"), identity); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAuthorize answers an unlock attempt: may this identity open this
// device right now.
func HandleAuthorize(svc AccessAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authorizeRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Identity == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "identity is required")
			return
		}

		granted, reservationID, err := svc.Authorize(r.Context(), chi.URLParam(r, "deviceID"), req.Identity)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, authorizeResponse{
			Granted:       granted,
			ReservationID: reservationID,
		})
	}
}

func HandleListDeviceLinks(svc AccessAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := svc.ListDeviceLinks(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]deviceLinkResponse, 0, len(links))
		for _, link := range links {
			out = append(out, toDeviceLinkResponse(link))
		}
		writeJSON(w, http.StatusOK, deviceLinksResponse{Devices: out})
	}
}

type linkDeviceRequest struct {
	DeviceID string `json:"device_id"`
	AssetID  int64  `json:"asset_id"`
}

type deviceLinkResponse struct {
	DeviceID  string    `json:"device_id"`
	AssetID   int64     `json:"asset_id"`
	LinkedBy  string    `json:"linked_by"`
	CreatedAt time.Time `json:"created_at"`
}

type deviceLinksResponse struct {
	Devices []deviceLinkResponse `json:"devices"`
}

type authorizeRequest struct {
	Identity string `json:"identity"`
}

type authorizeResponse struct {
	Granted       bool   `json:"granted"`
	ReservationID string `json:"reservation_id,omitempty"`
}

func toDeviceLinkResponse(link domain.DeviceLink) deviceLinkResponse {
	return deviceLinkResponse{
		DeviceID:  link.DeviceID,
		AssetID:   link.AssetID,
		LinkedBy:  link.LinkedBy,
		CreatedAt: link.CreatedAt,
	}
}
