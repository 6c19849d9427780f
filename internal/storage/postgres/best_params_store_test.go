package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
	"short-trade-lab/internal/storage/postgres"
)

func testBest(runID string, generatedAt int64) *domain.BestParams {
	return &domain.BestParams{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Symbol:      "SOLUSDT",
		IntervalMin: 5,
		Params: domain.ParameterSet{
			Lookback:      30,
			ExitType:      domain.ExitTypeHighestLow,
			RiskFraction:  0.85,
			TakeProfitPct: 0.0044,
		},
		Summary: domain.SummaryMetrics{
			PnLValue:     42.5,
			PnLPct:       9.0,
			FinalBalance: 514.5,
			TotalTrades:  17,
			Wins:         11,
			Losses:       6,
			WinRate:      64.7,
			AvgWin:       1.4,
			AvgLoss:      -0.9,
			RRRatio:      1.55,
			Sharpe:       2.1,
			MaxDrawdown:  0.08,
			Blocked:      3,
		},
		Leverage:       3,
		SpreadBps:      2,
		SlippageBps:    3,
		OrderRejectPct: 0.01,
	}
}

func TestBestParamsStore_InsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewBestParamsStore(pool)
	ctx := context.Background()

	want := testBest("run1", 1000)
	require.NoError(t, store.Insert(ctx, want))

	got, err := store.GetByRunID(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, want.Params, got.Params)
	assert.Equal(t, want.Summary, got.Summary)
	assert.Equal(t, want.Leverage, got.Leverage)
	assert.Equal(t, want.SpreadBps, got.SpreadBps)
}

func TestBestParamsStore_DuplicateKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewBestParamsStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testBest("run1", 1000)))
	err := store.Insert(ctx, testBest("run1", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBestParamsStore_GetLatest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewBestParamsStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testBest("run1", 1000)))
	require.NoError(t, store.Insert(ctx, testBest("run3", 3000)))
	require.NoError(t, store.Insert(ctx, testBest("run2", 2000)))

	got, err := store.GetLatest(ctx, "SOLUSDT")
	require.NoError(t, err)
	assert.Equal(t, "run3", got.RunID)

	_, err = store.GetLatest(ctx, "NOSUCH")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
