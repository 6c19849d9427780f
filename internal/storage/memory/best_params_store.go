package memory

import (
	"context"
	"sort"
	"sync"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
)

// BestParamsStore is an in-memory implementation of storage.BestParamsStore.
type BestParamsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BestParams // keyed by run_id
}

// NewBestParamsStore creates a new in-memory best-params store.
func NewBestParamsStore() *BestParamsStore {
	return &BestParamsStore{
		data: make(map[string]*domain.BestParams),
	}
}

var _ storage.BestParamsStore = (*BestParamsStore)(nil)

// Insert adds a new best-params row. Returns ErrDuplicateKey if run_id exists.
func (s *BestParamsStore) Insert(_ context.Context, b *domain.BestParams) error {
	if b == nil || b.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *b
	s.data[b.RunID] = &copy
	return nil
}

// GetByRunID retrieves a row by its run ID. Returns ErrNotFound if not exists.
func (s *BestParamsStore) GetByRunID(_ context.Context, runID string) (*domain.BestParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *b
	return &copy, nil
}

// GetLatest retrieves the most recently generated row for a symbol.
func (s *BestParamsStore) GetLatest(_ context.Context, symbol string) (*domain.BestParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.BestParams
	for _, b := range s.data {
		if b.Symbol != symbol {
			continue
		}
		if latest == nil || b.GeneratedAt > latest.GeneratedAt {
			latest = b
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	copy := *latest
	return &copy, nil
}

// GetBySymbol retrieves all rows for a symbol, ordered by generated_at ASC.
func (s *BestParamsStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.BestParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BestParams
	for _, b := range s.data {
		if b.Symbol == symbol {
			copy := *b
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].GeneratedAt != result[j].GeneratedAt {
			return result[i].GeneratedAt < result[j].GeneratedAt
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}
