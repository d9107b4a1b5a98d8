package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"basalt/internal/identity/models"
	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/platform/httputil"
)

// IdentityService defines the identity directory operations the transport
// needs.
type IdentityService interface {
	Register(ctx context.Context, account domain.Address, identityRef string, country domain.CountryCode) error
	BatchRegister(ctx context.Context, accounts []domain.Address, identityRefs []string, countries []domain.CountryCode) error
	UpdateIdentity(ctx context.Context, account domain.Address, identityRef string) error
	UpdateCountry(ctx context.Context, account domain.Address, country domain.CountryCode) error
	Remove(ctx context.Context, account domain.Address) error
	SetVerified(ctx context.Context, account domain.Address, verified bool) error
	IsVerified(ctx context.Context, account domain.Address) (bool, error)
	Get(ctx context.Context, account domain.Address) (models.Record, error)
}

// IdentityHandler exposes the identity directory over HTTP.
type IdentityHandler struct {
	identity IdentityService
}

// NewIdentityHandler creates an identity handler.
func NewIdentityHandler(identity IdentityService) *IdentityHandler {
	return &IdentityHandler{identity: identity}
}

// Register mounts the identity routes.
func (h *IdentityHandler) Register(r chi.Router) {
	r.Post("/identity", h.handleRegister)
	r.Post("/identity/batch", h.handleBatchRegister)
	r.Patch("/identity/{address}", h.handleUpdate)
	r.Delete("/identity/{address}", h.handleRemove)
	r.Post("/identity/{address}/verified", h.handleSetVerified)
	r.Get("/identity/{address}/verified", h.handleIsVerified)
	r.Get("/identity/{address}", h.handleGet)
}

type registerRequest struct {
	Account     string `json:"account"`
	IdentityRef string `json:"identity_ref"`
	Country     uint16 `json:"country"`
}

func (h *IdentityHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	account, err := domain.ParseAddress(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.identity.Register(r.Context(), account, req.IdentityRef, domain.CountryCode(req.Country)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type batchRegisterRequest struct {
	Accounts     []string `json:"accounts"`
	IdentityRefs []string `json:"identity_refs"`
	Countries    []uint16 `json:"countries"`
}

func (h *IdentityHandler) handleBatchRegister(w http.ResponseWriter, r *http.Request) {
	var req batchRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	accounts := make([]domain.Address, 0, len(req.Accounts))
	for _, raw := range req.Accounts {
		account, err := domain.ParseAddress(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		accounts = append(accounts, account)
	}
	countries := make([]domain.CountryCode, 0, len(req.Countries))
	for _, c := range req.Countries {
		countries = append(countries, domain.CountryCode(c))
	}
	if err := h.identity.BatchRegister(r.Context(), accounts, req.IdentityRefs, countries); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type updateIdentityRequest struct {
	IdentityRef *string `json:"identity_ref"`
	Country     *uint16 `json:"country"`
}

// handleUpdate patches the identity reference, the country, or both. At
// least one field must be present.
func (h *IdentityHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.IdentityRef == nil && req.Country == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "no fields to update"))
		return
	}
	if req.IdentityRef != nil {
		if err := h.identity.UpdateIdentity(r.Context(), account, *req.IdentityRef); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if req.Country != nil {
		if err := h.identity.UpdateCountry(r.Context(), account, domain.CountryCode(*req.Country)); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IdentityHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.identity.Remove(r.Context(), account); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setVerifiedRequest struct {
	Verified bool `json:"verified"`
}

func (h *IdentityHandler) handleSetVerified(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req setVerifiedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.identity.SetVerified(r.Context(), account, req.Verified); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IdentityHandler) handleIsVerified(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	verified, err := h.identity.IsVerified(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"verified": verified})
}

func (h *IdentityHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.identity.Get(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}
