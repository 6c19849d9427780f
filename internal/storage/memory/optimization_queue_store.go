package memory

import (
	"context"
	"sort"
	"sync"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
)

// OptimizationQueueStore is an in-memory implementation of
// storage.OptimizationQueueStore.
type OptimizationQueueStore struct {
	mu   sync.RWMutex
	data map[string]*domain.OptimizationJob // keyed by job_id
}

// NewOptimizationQueueStore creates a new in-memory queue store.
func NewOptimizationQueueStore() *OptimizationQueueStore {
	return &OptimizationQueueStore{
		data: make(map[string]*domain.OptimizationJob),
	}
}

var _ storage.OptimizationQueueStore = (*OptimizationQueueStore)(nil)

// Enqueue adds a job. Returns ErrDuplicateKey if job_id exists.
func (s *OptimizationQueueStore) Enqueue(_ context.Context, j *domain.OptimizationJob) error {
	if j == nil || j.JobID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[j.JobID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *j
	s.data[j.JobID] = &copy
	return nil
}

// GetByJobID retrieves a job by its ID. Returns ErrNotFound if not exists.
func (s *OptimizationQueueStore) GetByJobID(_ context.Context, jobID string) (*domain.OptimizationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, exists := s.data[jobID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *j
	return &copy, nil
}

// GetDue retrieves jobs with ready_at <= now, ordered by ready_at ASC.
func (s *OptimizationQueueStore) GetDue(_ context.Context, now int64) ([]*domain.OptimizationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OptimizationJob
	for _, j := range s.data {
		if j.ReadyAt <= now {
			copy := *j
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ReadyAt != result[j].ReadyAt {
			return result[i].ReadyAt < result[j].ReadyAt
		}
		return result[i].JobID < result[j].JobID
	})

	return result, nil
}

// GetBySymbol retrieves all jobs for a symbol, ordered by queued_at ASC.
func (s *OptimizationQueueStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.OptimizationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OptimizationJob
	for _, j := range s.data {
		if j.Symbol == symbol {
			copy := *j
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].QueuedAt != result[j].QueuedAt {
			return result[i].QueuedAt < result[j].QueuedAt
		}
		return result[i].JobID < result[j].JobID
	})

	return result, nil
}
