//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"basalt/internal/identity/models"
	"basalt/internal/identity/store"
	"basalt/pkg/domain"
	"basalt/pkg/platform/sentinel"
	"basalt/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "identity_records")
	s.Require().NoError(err)
}

func newTestRecord(account domain.Address) models.Record {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return models.Record{
		Account:     account,
		IdentityRef: "ref-" + string(account),
		Country:     784,
		Verified:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	record := newTestRecord("0xalice")

	s.Require().NoError(s.store.Create(ctx, record))

	found, err := s.store.Find(ctx, "0xalice")
	s.Require().NoError(err)
	s.Equal(record.Account, found.Account)
	s.Equal(record.IdentityRef, found.IdentityRef)
	s.Equal(record.Country, found.Country)
	s.True(found.Verified)
	s.WithinDuration(record.CreatedAt, found.CreatedAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), "0xnobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreateDuplicate() {
	ctx := context.Background()
	record := newTestRecord("0xalice")

	s.Require().NoError(s.store.Create(ctx, record))
	err := s.store.Create(ctx, record)
	s.ErrorIs(err, sentinel.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()
	record := newTestRecord("0xalice")
	s.Require().NoError(s.store.Create(ctx, record))

	record.IdentityRef = "ref-rotated"
	record.Country = 756
	record.Verified = false
	record.UpdatedAt = record.UpdatedAt.Add(time.Minute)
	s.Require().NoError(s.store.Update(ctx, record))

	found, err := s.store.Find(ctx, "0xalice")
	s.Require().NoError(err)
	s.Equal("ref-rotated", found.IdentityRef)
	s.Equal(domain.CountryCode(756), found.Country)
	s.False(found.Verified)
}

func (s *PostgresStoreSuite) TestUpdateMissing() {
	err := s.store.Update(context.Background(), newTestRecord("0xnobody"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	record := newTestRecord("0xalice")
	s.Require().NoError(s.store.Create(ctx, record))

	s.Require().NoError(s.store.Delete(ctx, "0xalice"))

	_, err := s.store.Find(ctx, "0xalice")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, "0xalice"), sentinel.ErrNotFound)
}

// TestCreateBatchSkipsExisting verifies batch inserts report only the rows
// they actually created so retries stay idempotent.
func (s *PostgresStoreSuite) TestCreateBatchSkipsExisting() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newTestRecord("0xalice")))

	created, err := s.store.CreateBatch(ctx, []models.Record{
		newTestRecord("0xalice"),
		newTestRecord("0xbob"),
		newTestRecord("0xcarol"),
	})
	s.Require().NoError(err)
	s.Len(created, 2)
	s.Equal(domain.Address("0xbob"), created[0].Account)
	s.Equal(domain.Address("0xcarol"), created[1].Account)

	for _, account := range []domain.Address{"0xalice", "0xbob", "0xcarol"} {
		_, err := s.store.Find(ctx, account)
		s.NoError(err)
	}
}

// TestConcurrentCreate verifies that concurrent registration attempts for the
// same account result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentCreate() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestRecord("0xcontended"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyExists) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get the conflict error")
}
