package store

import (
	"context"
	"sync"

	"basalt/internal/identity/models"
	"basalt/pkg/domain"
	"basalt/pkg/platform/sentinel"
)

// InMemory keeps identity records in memory. It intentionally favors
// clarity over performance.
type InMemory struct {
	mu      sync.RWMutex
	records map[domain.Address]models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[domain.Address]models.Record)}
}

func (s *InMemory) Find(_ context.Context, account domain.Address) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[account]; ok {
		return record, nil
	}
	return models.Record{}, sentinel.ErrNotFound
}

func (s *InMemory) Create(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Account]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.records[record.Account] = record
	return nil
}

func (s *InMemory) Update(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Account]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.Account] = record
	return nil
}

func (s *InMemory) Delete(_ context.Context, account domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[account]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, account)
	return nil
}

func (s *InMemory) CreateBatch(_ context.Context, records []models.Record) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := make([]models.Record, 0, len(records))
	for _, record := range records {
		if _, ok := s.records[record.Account]; ok {
			continue
		}
		s.records[record.Account] = record
		created = append(created, record)
	}
	return created, nil
}
