package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"basalt/internal/ledger"
	"basalt/internal/ledger/models"
	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/platform/httputil"
)

// AssetService defines the asset registry operations the transport needs.
type AssetService interface {
	CreateAsset(ctx context.Context, key domain.AssetKey, name, metadataRef string, priceUSD, priceAED, maxSupply uint64) error
	UpdateAsset(ctx context.Context, key domain.AssetKey, update ledger.AssetUpdate) error
	SetAssetActive(ctx context.Context, key domain.AssetKey, active bool) error
	GetAsset(ctx context.Context, key domain.AssetKey) (models.Asset, error)
}

// AssetHandler exposes the asset registry over HTTP.
type AssetHandler struct {
	assets AssetService
}

// NewAssetHandler creates an asset handler.
func NewAssetHandler(assets AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// Register mounts the asset routes.
func (h *AssetHandler) Register(r chi.Router) {
	r.Post("/assets", h.handleCreate)
	r.Patch("/assets/{key}", h.handleUpdate)
	r.Post("/assets/{key}/active", h.handleSetActive)
	r.Get("/assets/{key}", h.handleGet)
}

type createAssetRequest struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	MetadataRef string `json:"metadata_ref"`
	PriceUSD    uint64 `json:"price_usd"`
	PriceAED    uint64 `json:"price_aed"`
	MaxSupply   uint64 `json:"max_supply"`
}

func (h *AssetHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	key, err := domain.ParseAssetKey(req.Key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.assets.CreateAsset(r.Context(), key, req.Name, req.MetadataRef, req.PriceUSD, req.PriceAED, req.MaxSupply); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type updateAssetRequest struct {
	Name        string `json:"name"`
	MetadataRef string `json:"metadata_ref"`
	PriceUSD    uint64 `json:"price_usd"`
	PriceAED    uint64 `json:"price_aed"`
	MaxSupply   uint64 `json:"max_supply"`
}

func (h *AssetHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseAssetKey(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	update := ledger.AssetUpdate{
		Name:        req.Name,
		MetadataRef: req.MetadataRef,
		PriceUSD:    req.PriceUSD,
		PriceAED:    req.PriceAED,
		MaxSupply:   req.MaxSupply,
	}
	if err := h.assets.UpdateAsset(r.Context(), key, update); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *AssetHandler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseAssetKey(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.assets.SetAssetActive(r.Context(), key, req.Active); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AssetHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseAssetKey(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	asset, err := h.assets.GetAsset(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}
