package memory

import (
	"context"
	"errors"
	"testing"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/engine"
	"short-trade-lab/internal/rules"
	"short-trade-lab/internal/series"
	"short-trade-lab/internal/storage"
)

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		TradeID:    "trade1",
		RunID:      "run1",
		Symbol:     "SOLUSDT",
		EntryTime:  1000,
		EntryPrice: 98.0,
		ExitPrice:  97.6,
		PnL:        11.3,
		ExitReason: domain.ExitReasonTakeProfit,
	}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "trade1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.PnL != 11.3 {
		t.Errorf("PnL mismatch: got %f, want %f", got.PnL, 11.3)
	}
	if got.ExitReason != domain.ExitReasonTakeProfit {
		t.Errorf("ExitReason mismatch: got %q", got.ExitReason)
	}
}

func TestTradeRecordStore_DuplicateKey(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{TradeID: "trade1", RunID: "run1", Symbol: "SOLUSDT"}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeRecordStore_NotFound(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeRecordStore_InsertBulk(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		{TradeID: "t1", RunID: "r1", Symbol: "SOLUSDT", EntryTime: 1000},
		{TradeID: "t2", RunID: "r1", Symbol: "SOLUSDT", EntryTime: 2000},
		{TradeID: "t3", RunID: "r2", Symbol: "ETHUSDT", EntryTime: 3000},
	}

	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 trades for r1, got %d", len(got))
	}
	if got[0].TradeID != "t1" || got[1].TradeID != "t2" {
		t.Errorf("Wrong order: %s, %s", got[0].TradeID, got[1].TradeID)
	}
}

func TestTradeRecordStore_InsertBulkDuplicateRollsBack(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.TradeRecord{TradeID: "t2", RunID: "r0", Symbol: "SOLUSDT"}); err != nil {
		t.Fatalf("Seed insert failed: %v", err)
	}

	trades := []*domain.TradeRecord{
		{TradeID: "t1", RunID: "r1", Symbol: "SOLUSDT", EntryTime: 1000},
		{TradeID: "t2", RunID: "r1", Symbol: "SOLUSDT", EntryTime: 2000},
	}

	err := store.InsertBulk(ctx, trades)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// t1 must not have been inserted.
	if _, err := store.GetByID(ctx, "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Batch was not atomic: t1 present, err=%v", err)
	}
}

func TestTradeRecordStore_GetBySymbol(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		{TradeID: "t1", RunID: "r1", Symbol: "SOLUSDT", EntryTime: 2000},
		{TradeID: "t2", RunID: "r2", Symbol: "SOLUSDT", EntryTime: 1000},
		{TradeID: "t3", RunID: "r3", Symbol: "ETHUSDT", EntryTime: 1500},
	}
	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "SOLUSDT")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(got))
	}
	if got[0].TradeID != "t2" {
		t.Errorf("Expected t2 first (earliest entry), got %s", got[0].TradeID)
	}
}

// The simulation engine stamps each record with its run id and symbol,
// so a persisted trade log round-trips through GetByRunID.
func TestTradeRecordStore_EngineLogRoundTrip(t *testing.T) {
	cfg := domain.DefaultSimConfig()
	cfg.StartingBalance = 1000
	cfg.SpreadBps = 0
	cfg.SlippageBps = 0
	cfg.OrderRejectProb = 0
	cfg.DesiredLeverage = 10

	bars := []domain.Bar{
		{OpenTime: 1000, Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
		{OpenTime: 2000, Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
		{OpenTime: 3000, Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
		{OpenTime: 4000, Open: 102, High: 102, Low: 100, Close: 101, Volume: 100},
		{OpenTime: 5000, Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 100},
	}
	s, err := series.New(bars)
	if err != nil {
		t.Fatalf("series.New failed: %v", err)
	}

	eng := engine.New(cfg, rules.DefaultConfig())
	res, err := eng.Run(s, domain.ParameterSet{
		Lookback:      2,
		ExitType:      domain.ExitTypeTakeProfit,
		RiskFraction:  0.5,
		TakeProfitPct: 0.01,
	}, 7)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("Expected at least one trade")
	}
	for _, tr := range res.Trades {
		if tr.RunID != res.RunID || tr.Symbol != cfg.Symbol {
			t.Fatalf("Record identity %q/%q, want %q/%q", tr.RunID, tr.Symbol, res.RunID, cfg.Symbol)
		}
	}

	store := NewTradeRecordStore()
	ctx := context.Background()
	recs := make([]*domain.TradeRecord, len(res.Trades))
	for i := range res.Trades {
		recs[i] = &res.Trades[i]
	}
	if err := store.InsertBulk(ctx, recs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != len(res.Trades) {
		t.Fatalf("Expected %d trades for run, got %d", len(res.Trades), len(got))
	}
}

func TestTradeRecordStore_InvalidInput(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.TradeRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty trade_id, got %v", err)
	}
}
