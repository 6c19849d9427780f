package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.Bar // series key -> open_time -> bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]map[int64]domain.Bar),
	}
}

var _ storage.BarStore = (*BarStore)(nil)

func seriesKey(symbol string, intervalMin int) string {
	return fmt.Sprintf("%s/%d", symbol, intervalMin)
}

// InsertBulk adds multiple bars atomically. Fails entire batch on any
// duplicate open_time.
func (s *BarStore) InsertBulk(_ context.Context, symbol string, intervalMin int, bars []domain.Bar) error {
	if symbol == "" || intervalMin <= 0 {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey(symbol, intervalMin)
	existing := s.data[key]

	batchKeys := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return storage.ErrInvalidInput
		}
		if _, ok := existing[b.OpenTime]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := batchKeys[b.OpenTime]; ok {
			return storage.ErrDuplicateKey
		}
		batchKeys[b.OpenTime] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]domain.Bar, len(bars))
		s.data[key] = existing
	}
	for _, b := range bars {
		existing[b.OpenTime] = b
	}
	return nil
}

// GetBySymbol retrieves all bars for a symbol/interval, ordered by open_time ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string, intervalMin int) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for _, b := range s.data[seriesKey(symbol, intervalMin)] {
		result = append(result, b)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenTime < result[j].OpenTime
	})
	return result, nil
}

// GetByTimeRange retrieves bars within [start, end] inclusive, ordered
// by open_time ASC.
func (s *BarStore) GetByTimeRange(_ context.Context, symbol string, intervalMin int, start, end int64) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for _, b := range s.data[seriesKey(symbol, intervalMin)] {
		if b.OpenTime >= start && b.OpenTime <= end {
			result = append(result, b)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenTime < result[j].OpenTime
	})
	return result, nil
}
