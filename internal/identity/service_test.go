package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"basalt/internal/audit"
	identitystore "basalt/internal/identity/store"
	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/requestcontext"
)

const (
	agent    = domain.Address("0xagent")
	civilian = domain.Address("0xcivilian")
	alice    = domain.Address("0xalice")
	bob      = domain.Address("0xbob")
)

// fakeCache records cache traffic so the read-through and invalidation
// paths can be asserted without Redis.
type fakeCache struct {
	entries     map[domain.Address]bool
	invalidated []domain.Address
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[domain.Address]bool)}
}

func (c *fakeCache) Get(_ context.Context, account domain.Address) (bool, bool) {
	verified, ok := c.entries[account]
	return verified, ok
}

func (c *fakeCache) Set(_ context.Context, account domain.Address, verified bool) {
	c.entries[account] = verified
}

func (c *fakeCache) Invalidate(_ context.Context, account domain.Address) {
	delete(c.entries, account)
	c.invalidated = append(c.invalidated, account)
}

type IdentityServiceSuite struct {
	suite.Suite
	store      *identitystore.InMemory
	cache      *fakeCache
	auditStore *audit.InMemoryStore
	service    *Service
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.store = identitystore.NewInMemory()
	s.cache = newFakeCache()
	s.auditStore = audit.NewInMemoryStore()

	agents := AgentCheckerFunc(func(_ context.Context, account domain.Address) (bool, error) {
		return account == agent, nil
	})
	s.service = New(s.store, agents,
		WithCache(s.cache),
		WithAuditPublisher(audit.NewPublisher(s.auditStore)),
	)
}

func (s *IdentityServiceSuite) as(actor domain.Address) context.Context {
	return requestcontext.WithActor(context.Background(), actor)
}

func (s *IdentityServiceSuite) register(account domain.Address) {
	s.T().Helper()
	s.Require().NoError(s.service.Register(s.as(agent), account, "ref-"+string(account), 784))
}

func (s *IdentityServiceSuite) actions() []audit.Action {
	events := s.auditStore.All()
	actions := make([]audit.Action, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

// =============================================================================
// Register Tests
// =============================================================================

func (s *IdentityServiceSuite) TestRegister() {
	s.Run("creates a verified record and emits three events", func() {
		s.register(alice)

		record, err := s.service.Get(context.Background(), alice)
		s.NoError(err)
		s.True(record.Verified)
		s.Equal(domain.CountryCode(784), record.Country)

		s.Equal([]audit.Action{
			audit.ActionIdentityRegistered,
			audit.ActionCountryUpdated,
			audit.ActionIdentityVerified,
		}, s.actions())
	})

	s.Run("duplicate registration conflicts", func() {
		err := s.service.Register(s.as(agent), alice, "ref-again", 784)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-agent is rejected", func() {
		err := s.service.Register(s.as(civilian), bob, "ref-bob", 784)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unauthenticated caller is rejected", func() {
		err := s.service.Register(context.Background(), bob, "ref-bob", 784)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("zero account is invalid", func() {
		err := s.service.Register(s.as(agent), domain.ZeroAddress, "ref", 784)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// Batch Register Tests
// =============================================================================

func (s *IdentityServiceSuite) TestBatchRegister() {
	s.Run("length mismatch", func() {
		err := s.service.BatchRegister(s.as(agent),
			[]domain.Address{alice, bob},
			[]string{"ref-a"},
			[]domain.CountryCode{784, 784},
		)
		s.True(dErrors.HasCode(err, dErrors.CodeLengthMismatch))
	})

	s.Run("registers all entries", func() {
		err := s.service.BatchRegister(s.as(agent),
			[]domain.Address{alice, bob},
			[]string{"ref-a", "ref-b"},
			[]domain.CountryCode{784, 826},
		)
		s.NoError(err)
		for _, account := range []domain.Address{alice, bob} {
			verified, verr := s.service.IsVerified(context.Background(), account)
			s.NoError(verr)
			s.True(verified)
		}
	})

	s.Run("retry skips existing entries instead of failing", func() {
		before := len(s.auditStore.All())
		err := s.service.BatchRegister(s.as(agent),
			[]domain.Address{alice, bob},
			[]string{"ref-a", "ref-b"},
			[]domain.CountryCode{784, 826},
		)
		s.NoError(err)
		// No new records, so no new events either.
		s.Len(s.auditStore.All(), before)
	})

	s.Run("partially-new batch registers only the new entries", func() {
		carol := domain.Address("0xcarol")
		before := len(s.auditStore.All())
		err := s.service.BatchRegister(s.as(agent),
			[]domain.Address{alice, carol},
			[]string{"ref-a", "ref-c"},
			[]domain.CountryCode{784, 784},
		)
		s.NoError(err)
		s.Len(s.auditStore.All(), before+3)
		verified, verr := s.service.IsVerified(context.Background(), carol)
		s.NoError(verr)
		s.True(verified)
	})
}

// =============================================================================
// Update And Remove Tests
// =============================================================================

func (s *IdentityServiceSuite) TestUpdateIdentity() {
	s.register(alice)

	s.Run("replaces the identity handle", func() {
		s.Require().NoError(s.service.UpdateIdentity(s.as(agent), alice, "ref-new"))
		record, err := s.service.Get(context.Background(), alice)
		s.NoError(err)
		s.Equal("ref-new", record.IdentityRef)
	})

	s.Run("empty handle is invalid", func() {
		err := s.service.UpdateIdentity(s.as(agent), alice, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unregistered account", func() {
		err := s.service.UpdateIdentity(s.as(agent), bob, "ref")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *IdentityServiceSuite) TestUpdateCountry() {
	s.register(alice)
	s.Require().NoError(s.service.UpdateCountry(s.as(agent), alice, 756))
	record, err := s.service.Get(context.Background(), alice)
	s.NoError(err)
	s.Equal(domain.CountryCode(756), record.Country)
}

func (s *IdentityServiceSuite) TestRemove() {
	s.register(alice)

	s.Run("removes the whole record", func() {
		s.Require().NoError(s.service.Remove(s.as(agent), alice))
		_, err := s.service.Get(context.Background(), alice)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		verified, verr := s.service.IsVerified(context.Background(), alice)
		s.NoError(verr)
		s.False(verified)
	})

	s.Run("removing twice is not found", func() {
		err := s.service.Remove(s.as(agent), alice)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Verification Tests
// =============================================================================

func (s *IdentityServiceSuite) TestSetVerified() {
	s.register(alice)

	s.Run("toggles the flag and emits", func() {
		s.Require().NoError(s.service.SetVerified(s.as(agent), alice, false))
		verified, err := s.service.IsVerified(context.Background(), alice)
		s.NoError(err)
		s.False(verified)

		actions := s.actions()
		s.Equal(audit.ActionIdentityUnverified, actions[len(actions)-1])

		s.Require().NoError(s.service.SetVerified(s.as(agent), alice, true))
		verified, err = s.service.IsVerified(context.Background(), alice)
		s.NoError(err)
		s.True(verified)
	})

	s.Run("unregistered account", func() {
		err := s.service.SetVerified(s.as(agent), bob, true)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *IdentityServiceSuite) TestIsVerified() {
	s.Run("zero address is never verified", func() {
		verified, err := s.service.IsVerified(context.Background(), domain.ZeroAddress)
		s.NoError(err)
		s.False(verified)
	})

	s.Run("unregistered account is unverified, not an error", func() {
		verified, err := s.service.IsVerified(context.Background(), bob)
		s.NoError(err)
		s.False(verified)
	})

	s.Run("reads populate the cache", func() {
		s.register(alice)
		// Registration invalidates; the next read fills the cache.
		_, err := s.service.IsVerified(context.Background(), alice)
		s.NoError(err)
		verified, ok := s.cache.entries[alice]
		s.True(ok)
		s.True(verified)
	})

	s.Run("cache hit short-circuits the store", func() {
		s.cache.entries[bob] = true
		verified, err := s.service.IsVerified(context.Background(), bob)
		s.NoError(err)
		s.True(verified)
	})

	s.Run("mutations invalidate the cache", func() {
		s.Require().NoError(s.service.SetVerified(s.as(agent), alice, false))
		_, ok := s.cache.entries[alice]
		s.False(ok)
		s.Contains(s.cache.invalidated, alice)
	})
}
