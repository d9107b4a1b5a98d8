package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/platform/httputil"
)

// ComplianceService defines the policy administration operations the
// transport needs. Transfer checks themselves run inside the ledger, not
// over HTTP.
type ComplianceService interface {
	Bind(ctx context.Context, ledgerRef string) error
	Unbind(ctx context.Context) error
	SetTransfersEnabled(ctx context.Context, enabled bool) error
	TransfersEnabled() bool
	Bound() string
}

// ComplianceHandler exposes policy administration over HTTP.
type ComplianceHandler struct {
	policy ComplianceService
}

// NewComplianceHandler creates a compliance handler.
func NewComplianceHandler(policy ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{policy: policy}
}

// Register mounts the compliance routes.
func (h *ComplianceHandler) Register(r chi.Router) {
	r.Post("/compliance/bind", h.handleBind)
	r.Post("/compliance/unbind", h.handleUnbind)
	r.Post("/compliance/transfers", h.handleSetTransfersEnabled)
	r.Get("/compliance", h.handleStatus)
}

type bindRequest struct {
	LedgerRef string `json:"ledger_ref"`
}

func (h *ComplianceHandler) handleBind(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.policy.Bind(r.Context(), req.LedgerRef); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ComplianceHandler) handleUnbind(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.Unbind(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setTransfersRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *ComplianceHandler) handleSetTransfersEnabled(w http.ResponseWriter, r *http.Request) {
	var req setTransfersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := h.policy.SetTransfersEnabled(r.Context(), req.Enabled); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type complianceStatus struct {
	Bound            string `json:"bound,omitempty"`
	TransfersEnabled bool   `json:"transfers_enabled"`
}

func (h *ComplianceHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, complianceStatus{
		Bound:            h.policy.Bound(),
		TransfersEnabled: h.policy.TransfersEnabled(),
	})
}
