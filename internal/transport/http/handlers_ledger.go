package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"basalt/internal/ledger/models"
	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/platform/httputil"
)

// LedgerService defines the ledger operations the transport needs. The
// acting party comes from the request context, never from the body.
type LedgerService interface {
	Mint(ctx context.Context, to domain.Address, key domain.AssetKey, amount uint64) error
	BatchMint(ctx context.Context, tos []domain.Address, keys []domain.AssetKey, amounts []uint64) error
	Burn(ctx context.Context, from domain.Address, key domain.AssetKey, amount uint64, reason string) error
	Transfer(ctx context.Context, to domain.Address, amount uint64) error
	TransferFrom(ctx context.Context, from, to domain.Address, amount uint64) error
	Approve(ctx context.Context, spender domain.Address, amount uint64) error
	ForcedTransfer(ctx context.Context, from, to domain.Address, amount uint64) error
	SetFrozen(ctx context.Context, account domain.Address, frozen bool) error
	FreezePartial(ctx context.Context, account domain.Address, amount uint64) error
	UnfreezePartial(ctx context.Context, account domain.Address, amount uint64) error
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
	Paused(ctx context.Context) (bool, error)
	GrantRole(ctx context.Context, account domain.Address, role models.Role) error
	RevokeRole(ctx context.Context, account domain.Address, role models.Role) error
	HasRole(ctx context.Context, account domain.Address, role models.Role) (bool, error)
	GetAccount(ctx context.Context, account domain.Address) (models.Account, error)
	Holding(ctx context.Context, account domain.Address, key domain.AssetKey) (uint64, error)
	Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error)
}

// LedgerHandler exposes ledger operations over HTTP.
type LedgerHandler struct {
	ledger LedgerService
}

// NewLedgerHandler creates a ledger handler.
func NewLedgerHandler(ledger LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Register mounts the ledger routes.
func (h *LedgerHandler) Register(r chi.Router) {
	r.Post("/ledger/mint", h.handleMint)
	r.Post("/ledger/mint/batch", h.handleBatchMint)
	r.Post("/ledger/burn", h.handleBurn)
	r.Post("/ledger/transfer", h.handleTransfer)
	r.Post("/ledger/transfer/from", h.handleTransferFrom)
	r.Post("/ledger/transfer/forced", h.handleForcedTransfer)
	r.Post("/ledger/approve", h.handleApprove)
	r.Post("/ledger/freeze", h.handleSetFrozen)
	r.Post("/ledger/freeze/partial", h.handleFreezePartial)
	r.Post("/ledger/unfreeze/partial", h.handleUnfreezePartial)
	r.Post("/ledger/pause", h.handlePause)
	r.Post("/ledger/unpause", h.handleUnpause)
	r.Get("/ledger/paused", h.handlePaused)
	r.Post("/ledger/roles/grant", h.handleGrantRole)
	r.Post("/ledger/roles/revoke", h.handleRevokeRole)
	r.Get("/ledger/accounts/{address}", h.handleGetAccount)
	r.Get("/ledger/accounts/{address}/roles/{role}", h.handleHasRole)
	r.Get("/ledger/accounts/{address}/holdings/{key}", h.handleHolding)
	r.Get("/ledger/allowances/{owner}/{spender}", h.handleAllowance)
}

type mintRequest struct {
	To     string `json:"to"`
	Key    string `json:"key"`
	Amount uint64 `json:"amount"`
}

func (h *LedgerHandler) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	key, err := domain.ParseAssetKey(req.Key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.Mint(r.Context(), to, key, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchMintRequest struct {
	Tos     []string `json:"tos"`
	Keys    []string `json:"keys"`
	Amounts []uint64 `json:"amounts"`
}

func (h *LedgerHandler) handleBatchMint(w http.ResponseWriter, r *http.Request) {
	var req batchMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	tos := make([]domain.Address, 0, len(req.Tos))
	for _, raw := range req.Tos {
		to, err := domain.ParseAddress(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		tos = append(tos, to)
	}
	keys := make([]domain.AssetKey, 0, len(req.Keys))
	for _, raw := range req.Keys {
		key, err := domain.ParseAssetKey(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		keys = append(keys, key)
	}
	if err := h.ledger.BatchMint(r.Context(), tos, keys, req.Amounts); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type burnRequest struct {
	From   string `json:"from"`
	Key    string `json:"key"`
	Amount uint64 `json:"amount"`
	Reason string `json:"reason"`
}

func (h *LedgerHandler) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	key, err := domain.ParseAssetKey(req.Key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.Burn(r.Context(), from, key, req.Amount, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (h *LedgerHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.Transfer(r.Context(), to, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (h *LedgerHandler) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	var req transferFromRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.TransferFrom(r.Context(), from, to, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) handleForcedTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferFromRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.ForcedTransfer(r.Context(), from, to, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type approveRequest struct {
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

func (h *LedgerHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	spender, err := domain.ParseAddress(req.Spender)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.Approve(r.Context(), spender, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setFrozenRequest struct {
	Account string `json:"account"`
	Frozen  bool   `json:"frozen"`
}

func (h *LedgerHandler) handleSetFrozen(w http.ResponseWriter, r *http.Request) {
	var req setFrozenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	account, err := domain.ParseAddress(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.SetFrozen(r.Context(), account, req.Frozen); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type partialFreezeRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

func (h *LedgerHandler) handleFreezePartial(w http.ResponseWriter, r *http.Request) {
	h.partialFreeze(w, r, h.ledger.FreezePartial)
}

func (h *LedgerHandler) handleUnfreezePartial(w http.ResponseWriter, r *http.Request) {
	h.partialFreeze(w, r, h.ledger.UnfreezePartial)
}

func (h *LedgerHandler) partialFreeze(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.Address, uint64) error) {
	var req partialFreezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	account, err := domain.ParseAddress(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := op(r.Context(), account, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Pause(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Unpause(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) handlePaused(w http.ResponseWriter, r *http.Request) {
	paused, err := h.ledger.Paused(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"paused": paused})
}

type roleRequest struct {
	Account string `json:"account"`
	Role    string `json:"role"`
}

func (h *LedgerHandler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.roleChange(w, r, h.ledger.GrantRole)
}

func (h *LedgerHandler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.roleChange(w, r, h.ledger.RevokeRole)
}

func (h *LedgerHandler) roleChange(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.Address, models.Role) error) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	account, err := domain.ParseAddress(req.Account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := op(r.Context(), account, role); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	acct, err := h.ledger.GetAccount(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acct)
}

func (h *LedgerHandler) handleHasRole(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	has, err := h.ledger.HasRole(r.Context(), account, role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"granted": has})
}

func (h *LedgerHandler) handleHolding(w http.ResponseWriter, r *http.Request) {
	account, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	key, err := domain.ParseAssetKey(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := h.ledger.Holding(r.Context(), account, key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

func (h *LedgerHandler) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseAddress(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	spender, err := domain.ParseAddress(chi.URLParam(r, "spender"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := h.ledger.Allowance(r.Context(), owner, spender)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}
