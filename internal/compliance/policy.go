// Package compliance implements the transfer policy consulted by the ledger
// before any peer-to-peer balance movement, plus the lifecycle hooks the
// ledger notifies after a commit.
package compliance

import (
	"context"
	"log/slog"
	"sync"

	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/requestcontext"
)

// Policy is the pass/fail decision function for transfers. It is bound to
// exactly one ledger: only that ledger may invoke the lifecycle hooks, and
// only the policy's owner may bind, unbind, or toggle transfers.
//
// Phase 1 keeps a single global switch: peer-to-peer transfers are closed
// until transfersEnabled is raised. Issuance and redemption are never
// blocked here; the zero Address on either side short-circuits to allow.
type Policy struct {
	mu               sync.RWMutex
	owner            domain.Address
	bound            string
	transfersEnabled bool
	logger           *slog.Logger
}

type Option func(p *Policy)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Policy) {
		p.logger = logger
	}
}

// NewPolicy constructs a policy owned by the given address. Transfers start
// disabled.
func NewPolicy(owner domain.Address, opts ...Option) *Policy {
	p := &Policy{owner: owner}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CanTransfer is the pure decision function. Side-effect-free and callable
// at any time.
func (p *Policy) CanTransfer(from, to domain.Address, amount uint64) bool {
	if from.IsZero() || to.IsZero() {
		// Mint and burn paths: compliance never blocks the ledger's own
		// issuance or redemption.
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transfersEnabled
}

// Bind ties the policy to a ledger ref. Rebinding requires an explicit
// Unbind first.
func (p *Policy) Bind(ctx context.Context, ledgerRef string) error {
	if err := p.requireOwner(ctx); err != nil {
		return err
	}
	if ledgerRef == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "ledger ref cannot be empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bound != "" {
		return dErrors.New(dErrors.CodeConflict, "policy is already bound to a ledger")
	}
	p.bound = ledgerRef
	return nil
}

// Unbind releases the ledger binding.
func (p *Policy) Unbind(ctx context.Context) error {
	if err := p.requireOwner(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bound == "" {
		return dErrors.New(dErrors.CodeStateConflict, "policy is not bound to a ledger")
	}
	p.bound = ""
	return nil
}

// SetTransfersEnabled toggles the global transfer switch.
func (p *Policy) SetTransfersEnabled(ctx context.Context, enabled bool) error {
	if err := p.requireOwner(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transfersEnabled = enabled
	return nil
}

// TransfersEnabled reports the current switch state.
func (p *Policy) TransfersEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transfersEnabled
}

// Bound reports the ledger ref the policy is bound to, empty when unbound.
func (p *Policy) Bound() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bound
}

// Created is the post-issuance lifecycle hook. Notification only: the
// ledger has already committed when it fires.
func (p *Policy) Created(ctx context.Context, caller string, to domain.Address, amount uint64) error {
	if err := p.requireBoundCaller(caller); err != nil {
		return err
	}
	p.log(ctx, "tokens created", "to", to, "amount", amount)
	return nil
}

// Destroyed is the post-redemption lifecycle hook.
func (p *Policy) Destroyed(ctx context.Context, caller string, from domain.Address, amount uint64) error {
	if err := p.requireBoundCaller(caller); err != nil {
		return err
	}
	p.log(ctx, "tokens destroyed", "from", from, "amount", amount)
	return nil
}

// Transferred is the post-transfer lifecycle hook.
func (p *Policy) Transferred(ctx context.Context, caller string, from, to domain.Address, amount uint64) error {
	if err := p.requireBoundCaller(caller); err != nil {
		return err
	}
	p.log(ctx, "tokens transferred", "from", from, "to", to, "amount", amount)
	return nil
}

func (p *Policy) requireOwner(ctx context.Context) error {
	if requestcontext.Actor(ctx) != p.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the policy owner")
	}
	return nil
}

func (p *Policy) requireBoundCaller(caller string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.bound == "" || caller != p.bound {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the bound ledger")
	}
	return nil
}

func (p *Policy) log(ctx context.Context, msg string, args ...any) {
	if p.logger != nil {
		p.logger.InfoContext(ctx, msg, args...)
	}
}
