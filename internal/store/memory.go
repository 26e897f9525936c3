package store

import (
	"context"
	"sync"
	"time"

	"github.com/OldStager01/crop-advisor/pkg/models"
)

type memoryEntry struct {
	forecast  models.StoredForecast
	expiresAt time.Time
}

// MemoryStore keeps forecasts in process. Entries expire after their TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*models.StoredForecast, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	f := e.forecast
	f.Values = append([]float64(nil), e.forecast.Values...)
	f.Columns = append([]string(nil), e.forecast.Columns...)
	return &f, nil
}

func (s *MemoryStore) Put(ctx context.Context, f *models.StoredForecast, ttl time.Duration) error {
	e := memoryEntry{forecast: *f}
	e.forecast.Values = append([]float64(nil), f.Values...)
	e.forecast.Columns = append([]string(nil), f.Columns...)
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[f.Key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                   { return nil }
