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

// LedgerAPI is the slice of the ownership ledger the asset handlers need.
type LedgerAPI interface {
	InitializeAsset(ctx context.Context, in app.InitializeAssetInput) (domain.Asset, error)
	Transfer(ctx context.Context, in app.TransferInput) error
	BalanceOf(ctx context.Context, assetID int64, holder string) (int64, error)
	TotalSupply(ctx context.Context, assetID int64) (int64, error)
	MajorityHolder(ctx context.Context, assetID int64) (domain.Holding, error)
	Holdings(ctx context.Context, assetID int64) ([]domain.Holding, error)
	HoldingsOf(ctx context.Context, holder string) ([]domain.Holding, error)
}

// DistributorAPI is the slice of the revenue distributor exposed over HTTP.
type DistributorAPI interface {
	Distribute(ctx context.Context, in app.DistributeInput) (app.DistributionReport, error)
}

func assetIDFromURL(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "assetID"), 10, 64)
	return id, err == nil && id > 0
}

// HandleInitializeAsset returns an HTTP handler for registering an asset and
// minting its full supply to the caller.
func HandleInitializeAsset(svc LedgerAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req initializeAssetRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		asset, err := svc.InitializeAsset(r.Context(), app.InitializeAssetInput{
			AssetID:     req.AssetID,
			Creator:     identity,
			TotalSupply: req.TotalSupply,
			MetadataURI: req.MetadataURI,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, assetResponse{
			AssetID:     asset.ID,
			TotalSupply: asset.TotalSupply,
			MetadataURI: asset.MetadataURI,
			CreatedAt:   asset.CreatedAt,
		})
	}
}

// HandleTransfer returns an HTTP handler for moving ownership units from the
// caller to another holder.
func HandleTransfer(svc LedgerAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		assetID, ok := assetIDFromURL(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid asset id")
			return
		}

		var req transferRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		err := svc.Transfer(r.Context(), app.TransferInput{
			AssetID: assetID,
			From:    identity,
			To:      req.To,
			Amount:  req.Amount,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleBalance reports one holder's balance on an asset.
func HandleBalance(svc LedgerAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID, ok := assetIDFromURL(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid asset id")
			return
		}
		holder := chi.URLParam(r, "holder")

		balance, err := svc.BalanceOf(r.Context(), assetID, holder)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{
			AssetID: assetID,
			Holder:  holder,
			Balance: balance,
		})
	}
}

// HandleMajorityHolder reports the asset's current majority holder.
func HandleMajorityHolder(svc LedgerAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID, ok := assetIDFromURL(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid asset id")
			return
		}

		leader, err := svc.MajorityHolder(r.Context(), assetID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, holdingResponse{
			AssetID: leader.AssetID,
			Holder:  leader.Holder,
			Balance: leader.Balance,
		})
	}
}

// HandleHoldings lists an asset's positive holdings.
func HandleHoldings(svc LedgerAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID, ok := assetIDFromURL(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid asset id")
			return
		}

		holdings, err := svc.Holdings(r.Context(), assetID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, holdingsResponse{Holdings: toHoldingResponses(holdings)})
	}
}

// HandleMyHoldings lists every holding of the calling identity.
func HandleMyHoldings(svc LedgerAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		holdings, err := svc.HoldingsOf(r.Context(), identity)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, holdingsResponse{Holdings: toHoldingResponses(holdings)})
	}
}

// HandleDistribute splits an incoming payment across the asset's holders.
func HandleDistribute(svc DistributorAPI, platformFeeBps int64, feeAccount string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID, ok := assetIDFromURL(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid asset id")
			return
		}

		var req distributeRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		feeBps := platformFeeBps
		if req.FeeBps != nil {
			feeBps = *req.FeeBps
		}

		report, err := svc.Distribute(r.Context(), app.DistributeInput{
			AssetID:      assetID,
			TotalAmount:  req.Amount,
			FeeBps:       feeBps,
			FeeRecipient: feeAccount,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDistributionResponse(report))
	}
}

type initializeAssetRequest struct {
	AssetID     int64  `json:"asset_id"`
	TotalSupply int64  `json:"total_supply"`
	MetadataURI string `json:"metadata_uri"`
}

type assetResponse struct {
	AssetID     int64     `json:"asset_id"`
	TotalSupply int64     `json:"total_supply"`
	MetadataURI string    `json:"metadata_uri,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type transferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type balanceResponse struct {
	AssetID int64  `json:"asset_id"`
	Holder  string `json:"holder"`
	Balance int64  `json:"balance"`
}

type holdingResponse struct {
	AssetID int64  `json:"asset_id"`
	Holder  string `json:"holder"`
	Balance int64  `json:"balance"`
}

type holdingsResponse struct {
	Holdings []holdingResponse `json:"holdings"`
}

func toHoldingResponses(holdings []domain.Holding) []holdingResponse {
	out := make([]holdingResponse, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, holdingResponse{AssetID: h.AssetID, Holder: h.Holder, Balance: h.Balance})
	}
	return out
}

type distributeRequest struct {
	Amount int64  `json:"amount"`
	FeeBps *int64 `json:"fee_bps,omitempty"`
}

type payoutResponse struct {
	Holder string `json:"holder"`
	Amount int64  `json:"amount"`
}

type distributionResponse struct {
	AssetID       int64            `json:"asset_id"`
	TotalAmount   int64            `json:"total_amount"`
	Fee           int64            `json:"fee"`
	FeeRecipient  string           `json:"fee_recipient,omitempty"`
	Payouts       []payoutResponse `json:"payouts"`
	Dust          int64            `json:"dust"`
	DustRecipient string           `json:"dust_recipient,omitempty"`
	Escrowed      int64            `json:"escrowed,omitempty"`
}

func toDistributionResponse(report app.DistributionReport) distributionResponse {
	payouts := make([]payoutResponse, 0, len(report.Payouts))
	for _, p := range report.Payouts {
		payouts = append(payouts, payoutResponse{Holder: p.Holder, Amount: p.Amount})
	}
	return distributionResponse{
		AssetID:       report.AssetID,
		TotalAmount:   report.TotalAmount,
		Fee:           report.Fee,
		FeeRecipient:  report.FeeRecipient,
		Payouts:       payouts,
		Dust:          report.Dust,
		DustRecipient: report.DustRecipient,
		Escrowed:      report.Escrowed,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
