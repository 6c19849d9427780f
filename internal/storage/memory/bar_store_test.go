package memory

import (
	"context"
	"errors"
	"testing"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
)

func testBars(openTimes ...int64) []domain.Bar {
	bars := make([]domain.Bar, 0, len(openTimes))
	for _, ts := range openTimes {
		bars = append(bars, domain.Bar{
			OpenTime: ts,
			Open:     100, High: 101, Low: 99, Close: 100.5, Volume: 10,
		})
	}
	return bars
}

func TestBarStore_InsertAndGet(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "SOLUSDT", 5, testBars(3000, 1000, 2000)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "SOLUSDT", 5)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 bars, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].OpenTime <= got[i-1].OpenTime {
			t.Errorf("Bars not ascending at %d", i)
		}
	}
}

func TestBarStore_IntervalsAreSeparate(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "SOLUSDT", 5, testBars(1000)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "SOLUSDT", 15, testBars(1000)); err != nil {
		t.Fatalf("Insert into other interval failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "SOLUSDT", 15)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 bar in 15m series, got %d", len(got))
	}
}

func TestBarStore_DuplicateOpenTime(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "SOLUSDT", 5, testBars(1000)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	err := store.InsertBulk(ctx, "SOLUSDT", 5, testBars(2000, 1000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// The batch must not have been partially applied.
	got, err := store.GetBySymbol(ctx, "SOLUSDT", 5)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 bar after failed batch, got %d", len(got))
	}
}

func TestBarStore_GetByTimeRange(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "SOLUSDT", 5, testBars(1000, 2000, 3000, 4000)); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "SOLUSDT", 5, 2000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 bars in range, got %d", len(got))
	}
	if got[0].OpenTime != 2000 || got[1].OpenTime != 3000 {
		t.Errorf("Range bounds not inclusive: %d, %d", got[0].OpenTime, got[1].OpenTime)
	}
}

func TestBarStore_InvalidBarRejected(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	bad := []domain.Bar{{OpenTime: 1000, Open: 100, High: 90, Low: 99, Close: 100, Volume: 1}}
	if err := store.InsertBulk(ctx, "SOLUSDT", 5, bad); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
