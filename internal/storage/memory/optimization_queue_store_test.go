package memory

import (
	"context"
	"errors"
	"testing"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
)

func testJob(jobID string, queuedAt, readyAt int64) *domain.OptimizationJob {
	return &domain.OptimizationJob{
		JobID:    jobID,
		Symbol:   "SOLUSDT",
		QueuedAt: queuedAt,
		ReadyAt:  readyAt,
	}
}

func TestOptimizationQueueStore_EnqueueAndGet(t *testing.T) {
	store := NewOptimizationQueueStore()
	ctx := context.Background()

	if err := store.Enqueue(ctx, testJob("job1", 1000, 2000)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	got, err := store.GetByJobID(ctx, "job1")
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if got.ReadyAt != 2000 {
		t.Errorf("ReadyAt mismatch: got %d", got.ReadyAt)
	}
}

func TestOptimizationQueueStore_DuplicateKey(t *testing.T) {
	store := NewOptimizationQueueStore()
	ctx := context.Background()

	if err := store.Enqueue(ctx, testJob("job1", 1000, 2000)); err != nil {
		t.Fatalf("First enqueue failed: %v", err)
	}
	err := store.Enqueue(ctx, testJob("job1", 1000, 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestOptimizationQueueStore_GetDue(t *testing.T) {
	store := NewOptimizationQueueStore()
	ctx := context.Background()

	for _, j := range []*domain.OptimizationJob{
		testJob("job1", 1000, 5000),
		testJob("job2", 1000, 3000),
		testJob("job3", 1000, 9000),
	} {
		if err := store.Enqueue(ctx, j); err != nil {
			t.Fatalf("Enqueue %s failed: %v", j.JobID, err)
		}
	}

	due, err := store.GetDue(ctx, 5000)
	if err != nil {
		t.Fatalf("GetDue failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("Expected 2 due jobs, got %d", len(due))
	}
	if due[0].JobID != "job2" || due[1].JobID != "job1" {
		t.Errorf("Wrong order: %s, %s", due[0].JobID, due[1].JobID)
	}
}

func TestOptimizationQueueStore_GetDueEmpty(t *testing.T) {
	store := NewOptimizationQueueStore()
	ctx := context.Background()

	if err := store.Enqueue(ctx, testJob("job1", 1000, 5000)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	due, err := store.GetDue(ctx, 4999)
	if err != nil {
		t.Fatalf("GetDue failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Expected no due jobs, got %d", len(due))
	}
}
