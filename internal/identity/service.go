// Package identity implements the identity directory: the verification
// registry the ledger consults before tokens move toward an account.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"basalt/internal/audit"
	"basalt/internal/identity/models"
	"basalt/internal/platform/metrics"
	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/platform/sentinel"
	"basalt/pkg/requestcontext"
)

// Store persists identity records.
type Store interface {
	Find(ctx context.Context, account domain.Address) (models.Record, error)
	Create(ctx context.Context, record models.Record) error
	Update(ctx context.Context, record models.Record) error
	Delete(ctx context.Context, account domain.Address) error
	// CreateBatch inserts the given records, silently skipping accounts that
	// already have one, and returns the records actually created. All-or-
	// nothing apart from the skip rule.
	CreateBatch(ctx context.Context, records []models.Record) ([]models.Record, error)
}

// AgentChecker answers whether an account holds the agent capability.
// Backed by the ledger's role table.
type AgentChecker interface {
	IsAgent(ctx context.Context, account domain.Address) (bool, error)
}

// AgentCheckerFunc adapts a function to the AgentChecker interface. Wiring
// uses it to break the construction cycle between the directory and the
// ledger, which checks roles here but also consults the directory.
type AgentCheckerFunc func(ctx context.Context, account domain.Address) (bool, error)

func (f AgentCheckerFunc) IsAgent(ctx context.Context, account domain.Address) (bool, error) {
	return f(ctx, account)
}

// VerificationCache is an optional read-through cache for IsVerified.
// Implementations must treat their own failures as misses: a cache outage
// degrades reads to the store, never fails them.
type VerificationCache interface {
	Get(ctx context.Context, account domain.Address) (verified bool, ok bool)
	Set(ctx context.Context, account domain.Address, verified bool)
	Invalidate(ctx context.Context, account domain.Address)
}

// AuditPublisher records directory events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates identity record lifecycle. Mutations require the
// agent capability; reads are unrestricted.
type Service struct {
	store   Store
	agents  AgentChecker
	cache   VerificationCache
	audit   AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithCache(cache VerificationCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

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

// New constructs a Service.
func New(store Store, agents AgentChecker, opts ...Option) *Service {
	s := &Service{store: store, agents: agents}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a record for the account. Auto-verifies on creation.
func (s *Service) Register(ctx context.Context, account domain.Address, identityRef string, country domain.CountryCode) error {
	if err := s.requireAgent(ctx); err != nil {
		return err
	}
	record, err := models.NewRecord(account, identityRef, country, requestcontext.Now(ctx))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, err.Error())
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return dErrors.New(dErrors.CodeConflict, "account is already registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity record")
	}
	s.invalidate(ctx, account)
	s.emit(ctx, audit.Event{Action: audit.ActionIdentityRegistered, Account: account, Actor: requestcontext.Actor(ctx)})
	s.emit(ctx, audit.Event{Action: audit.ActionCountryUpdated, Account: account, Country: country, Actor: requestcontext.Actor(ctx)})
	s.emit(ctx, audit.Event{Action: audit.ActionIdentityVerified, Account: account, Actor: requestcontext.Actor(ctx)})
	if s.metrics != nil {
		s.metrics.IdentitiesRegistered.Inc()
	}
	return nil
}

// BatchRegister registers many accounts at once. Entries for accounts that
// already hold a record are skipped, not errored, so a batch can be retried
// idempotently. Any other failure aborts the whole batch.
func (s *Service) BatchRegister(ctx context.Context, accounts []domain.Address, identityRefs []string, countries []domain.CountryCode) error {
	if err := s.requireAgent(ctx); err != nil {
		return err
	}
	if len(accounts) != len(identityRefs) || len(accounts) != len(countries) {
		return dErrors.New(dErrors.CodeLengthMismatch, "batch input slices must have equal length")
	}

	now := requestcontext.Now(ctx)
	records := make([]models.Record, 0, len(accounts))
	for i, account := range accounts {
		record, err := models.NewRecord(account, identityRefs[i], countries[i], now)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, err.Error())
		}
		records = append(records, record)
	}

	created, err := s.store.CreateBatch(ctx, records)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register batch")
	}
	actor := requestcontext.Actor(ctx)
	for _, record := range created {
		s.invalidate(ctx, record.Account)
		s.emit(ctx, audit.Event{Action: audit.ActionIdentityRegistered, Account: record.Account, Actor: actor})
		s.emit(ctx, audit.Event{Action: audit.ActionCountryUpdated, Account: record.Account, Country: record.Country, Actor: actor})
		s.emit(ctx, audit.Event{Action: audit.ActionIdentityVerified, Account: record.Account, Actor: actor})
		if s.metrics != nil {
			s.metrics.IdentitiesRegistered.Inc()
		}
	}
	return nil
}

// UpdateIdentity replaces the identity handle for a registered account.
func (s *Service) UpdateIdentity(ctx context.Context, account domain.Address, identityRef string) error {
	if err := s.requireAgent(ctx); err != nil {
		return err
	}
	if identityRef == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "identity ref cannot be empty")
	}
	record, err := s.find(ctx, account)
	if err != nil {
		return err
	}
	record.IdentityRef = identityRef
	record.UpdatedAt = requestcontext.Now(ctx)
	if err := s.update(ctx, record); err != nil {
		return err
	}
	s.emit(ctx, audit.Event{Action: audit.ActionIdentityUpdated, Account: account, Actor: requestcontext.Actor(ctx)})
	return nil
}

// UpdateCountry replaces the country code for a registered account.
func (s *Service) UpdateCountry(ctx context.Context, account domain.Address, country domain.CountryCode) error {
	if err := s.requireAgent(ctx); err != nil {
		return err
	}
	record, err := s.find(ctx, account)
	if err != nil {
		return err
	}
	record.Country = country
	record.UpdatedAt = requestcontext.Now(ctx)
	if err := s.update(ctx, record); err != nil {
		return err
	}
	s.emit(ctx, audit.Event{Action: audit.ActionCountryUpdated, Account: account, Country: country, Actor: requestcontext.Actor(ctx)})
	return nil
}

// Remove deletes the whole record. All fields go together; there is no
// partial removal.
func (s *Service) Remove(ctx context.Context, account domain.Address) error {
	if err := s.requireAgent(ctx); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account is not registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove identity record")
	}
	s.invalidate(ctx, account)
	s.emit(ctx, audit.Event{Action: audit.ActionIdentityRemoved, Account: account, Actor: requestcontext.Actor(ctx)})
	return nil
}

// SetVerified toggles the verification flag for a registered account.
func (s *Service) SetVerified(ctx context.Context, account domain.Address, verified bool) error {
	if err := s.requireAgent(ctx); err != nil {
		return err
	}
	record, err := s.find(ctx, account)
	if err != nil {
		return err
	}
	record.Verified = verified
	record.UpdatedAt = requestcontext.Now(ctx)
	if err := s.update(ctx, record); err != nil {
		return err
	}
	s.invalidate(ctx, account)
	action := audit.ActionIdentityVerified
	if !verified {
		action = audit.ActionIdentityUnverified
	}
	s.emit(ctx, audit.Event{Action: action, Account: account, Flag: verified, Actor: requestcontext.Actor(ctx)})
	return nil
}

// IsVerified reports whether the account holds a record with the verified
// flag set. A removed record reads as unverified regardless of any state a
// cache may still hold; cache entries are TTL-bounded and invalidated on
// every mutation.
func (s *Service) IsVerified(ctx context.Context, account domain.Address) (bool, error) {
	if account.IsZero() {
		return false, nil
	}
	if s.cache != nil {
		if verified, ok := s.cache.Get(ctx, account); ok {
			return verified, nil
		}
	}
	record, err := s.store.Find(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read identity record")
	}
	if s.cache != nil {
		s.cache.Set(ctx, account, record.Verified)
	}
	return record.Verified, nil
}

// Get returns the full record for an account.
func (s *Service) Get(ctx context.Context, account domain.Address) (models.Record, error) {
	return s.find(ctx, account)
}

func (s *Service) find(ctx context.Context, account domain.Address) (models.Record, error) {
	if account.IsZero() {
		return models.Record{}, dErrors.New(dErrors.CodeInvalidInput, "account cannot be the zero address")
	}
	record, err := s.store.Find(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Record{}, dErrors.New(dErrors.CodeNotFound, "account is not registered")
		}
		return models.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read identity record")
	}
	return record, nil
}

func (s *Service) update(ctx context.Context, record models.Record) error {
	if err := s.store.Update(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account is not registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update identity record")
	}
	return nil
}

func (s *Service) requireAgent(ctx context.Context) error {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not authenticated")
	}
	ok, err := s.agents.IsAgent(ctx, actor)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check agent capability")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the agent capability")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, account domain.Address) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, account)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err, "action", event.Action)
	}
}
