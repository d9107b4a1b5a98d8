// Package ledger implements the root component of the system: account
// balances, per-account freeze state, the pause flag, role-based
// authorization, and the asset registry. Every mutation is gated by the
// identity directory and the compliance policy before it commits.
package ledger

import (
	"context"
	"log/slog"

	"basalt/internal/audit"
	"basalt/internal/ledger/models"
	"basalt/internal/ledger/store"
	"basalt/internal/platform/metrics"
	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/requestcontext"
)

// IdentityDirectory is the verification registry consulted before tokens
// move toward an account. Side-effect-free, callable at any time.
type IdentityDirectory interface {
	IsVerified(ctx context.Context, account domain.Address) (bool, error)
}

// CompliancePolicy is the pass/fail decision function for transfers plus
// the post-commit lifecycle hooks. The decision function is side-effect-
// free; the hooks are notifications only and cannot veto a committed
// mutation.
type CompliancePolicy interface {
	CanTransfer(from, to domain.Address, amount uint64) bool
	Created(ctx context.Context, caller string, to domain.Address, amount uint64) error
	Destroyed(ctx context.Context, caller string, from domain.Address, amount uint64) error
	Transferred(ctx context.Context, caller string, from, to domain.Address, amount uint64) error
}

// AuditPublisher records ledger events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the guarded-mutation engine. All checks and state changes for
// one operation run inside a single store transaction; collaborator
// notifications and event emission follow a successful commit.
type Service struct {
	store    store.Store
	identity IdentityDirectory
	policy   CompliancePolicy
	// ref is the identity this ledger presents to the compliance policy's
	// lifecycle hooks.
	ref     string
	audit   AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service bound to its collaborators. ref is the handle
// the compliance policy was bound with.
func New(st store.Store, identity IdentityDirectory, policy CompliancePolicy, ref string, opts ...Option) *Service {
	s := &Service{store: st, identity: identity, policy: policy, ref: ref}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -----------------------------------------------------------------------------
// Roles
// -----------------------------------------------------------------------------

// GrantRole assigns a role to an account. Admin only.
func (s *Service) GrantRole(ctx context.Context, account domain.Address, role models.Role) error {
	return s.setRole(ctx, account, role, true)
}

// RevokeRole removes a role from an account. Admin only.
func (s *Service) RevokeRole(ctx context.Context, account domain.Address, role models.Role) error {
	return s.setRole(ctx, account, role, false)
}

func (s *Service) setRole(ctx context.Context, account domain.Address, role models.Role, granted bool) error {
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "account cannot be the zero address")
	}
	actor := requestcontext.Actor(ctx)
	return s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAdmin); err != nil {
			return err
		}
		tx.SetRole(account, role, granted)
		return nil
	})
}

// HasRole reports whether the account holds the role.
func (s *Service) HasRole(ctx context.Context, account domain.Address, role models.Role) (bool, error) {
	var has bool
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		has = tx.HasRole(account, role)
		return nil
	})
	return has, err
}

// IsAgent satisfies the identity directory's AgentChecker: directory
// mutations are gated on the ledger's Agent role.
func (s *Service) IsAgent(ctx context.Context, account domain.Address) (bool, error) {
	return s.HasRole(ctx, account, models.RoleAgent)
}

// -----------------------------------------------------------------------------
// Pause
// -----------------------------------------------------------------------------

// Pause halts minting and transfers. Burn and administrative configuration
// stay available: redemption must remain possible for exits even under an
// emergency pause.
func (s *Service) Pause(ctx context.Context) error {
	return s.setPaused(ctx, true)
}

// Unpause lifts the pause.
func (s *Service) Unpause(ctx context.Context) error {
	return s.setPaused(ctx, false)
}

func (s *Service) setPaused(ctx context.Context, paused bool) error {
	actor := requestcontext.Actor(ctx)
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAdmin); err != nil {
			return err
		}
		tx.SetPaused(paused)
		return nil
	})
	if err != nil {
		return err
	}
	s.log(ctx, "ledger pause state changed", "paused", paused, "actor", actor)
	return nil
}

// Paused reports the pause flag.
func (s *Service) Paused(ctx context.Context) (bool, error) {
	var paused bool
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		paused = tx.Paused()
		return nil
	})
	return paused, err
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// GetAccount returns the balance record for an address. Accounts that were
// never touched read as zero-balance records.
func (s *Service) GetAccount(ctx context.Context, account domain.Address) (models.Account, error) {
	if account.IsZero() {
		return models.Account{}, dErrors.New(dErrors.CodeInvalidInput, "account cannot be the zero address")
	}
	var out models.Account
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		out = tx.Account(account)
		return nil
	})
	return out, err
}

// Balance returns the aggregate balance of an account.
func (s *Service) Balance(ctx context.Context, account domain.Address) (uint64, error) {
	acct, err := s.GetAccount(ctx, account)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// Holding returns the per-asset amount held by an account.
func (s *Service) Holding(ctx context.Context, account domain.Address, key domain.AssetKey) (uint64, error) {
	var amount uint64
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		amount = tx.Holding(account, key)
		return nil
	})
	return amount, err
}

// Allowance returns the remaining pre-approved spending allowance.
func (s *Service) Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error) {
	var amount uint64
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		amount = tx.Allowance(owner, spender)
		return nil
	})
	return amount, err
}

// -----------------------------------------------------------------------------
// Shared guards and plumbing
// -----------------------------------------------------------------------------

func requireRole(tx store.ReadTx, actor domain.Address, role models.Role) error {
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not authenticated")
	}
	if !tx.HasRole(actor, role) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the "+role.String()+" role")
	}
	return nil
}

func requireNotPaused(tx store.ReadTx) error {
	if tx.Paused() {
		return dErrors.New(dErrors.CodeStateConflict, "ledger is paused")
	}
	return nil
}

// requireVerified consults the identity directory for the recipient.
func (s *Service) requireVerified(ctx context.Context, account domain.Address) error {
	verified, err := s.identity.IsVerified(ctx, account)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verification status")
	}
	if !verified {
		return dErrors.New(dErrors.CodeStateConflict, "recipient identity is not verified")
	}
	return nil
}

// emit records an audit event. Emission failures are logged, never
// propagated: the mutation has already committed.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if event.Actor.IsZero() {
		event.Actor = requestcontext.Actor(ctx)
	}
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err, "action", event.Action)
	}
}

// notify delivers a compliance lifecycle hook. Hook errors are logged,
// never propagated: hooks have no veto power after commit.
func (s *Service) notify(ctx context.Context, name string, fn func() error) {
	if err := fn(); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "compliance hook failed",
			"hook", name, "error", err)
	}
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
