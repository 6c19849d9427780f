package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"short-trade-lab/internal/domain"
)

func TestRecordSimulationClassifiesTrades(t *testing.T) {
	m := DefaultMetrics
	barsBefore := testutil.ToFloat64(m.BarsEvaluated)
	tradesBefore := testutil.ToFloat64(m.TradesSimulated)
	liquidationsBefore := testutil.ToFloat64(m.LiquidationsHit)
	blockedBefore := testutil.ToFloat64(m.EntriesBlocked.WithLabelValues(domain.RejectReasonMinNotional))
	runsBefore := testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok"))

	RecordSimulation("SOLUSDT", 0.01, 120, []domain.TradeRecord{
		{TradeID: "a", ExitReason: domain.ExitReasonTakeProfit},
		{TradeID: "b", ExitReason: domain.ExitReasonLiquidation},
		{TradeID: "c", Rejected: true, RejectReason: domain.RejectReasonMinNotional},
	})

	if got := testutil.ToFloat64(m.BarsEvaluated) - barsBefore; got != 120 {
		t.Errorf("bars evaluated delta = %g, want 120", got)
	}
	// The blocked attempt is not a simulated trade.
	if got := testutil.ToFloat64(m.TradesSimulated) - tradesBefore; got != 2 {
		t.Errorf("trades delta = %g, want 2", got)
	}
	if got := testutil.ToFloat64(m.LiquidationsHit) - liquidationsBefore; got != 1 {
		t.Errorf("liquidations delta = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.EntriesBlocked.WithLabelValues(domain.RejectReasonMinNotional)) - blockedBefore; got != 1 {
		t.Errorf("blocked delta = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")) - runsBefore; got != 1 {
		t.Errorf("ok runs delta = %g, want 1", got)
	}
}

func TestRecordLiveBarTracksEquity(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.LiveBarsConsumed)

	RecordLiveBar(987.5)

	if got := testutil.ToFloat64(DefaultMetrics.LiveBarsConsumed) - before; got != 1 {
		t.Errorf("bars consumed delta = %g, want 1", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.LiveEquity); got != 987.5 {
		t.Errorf("live equity = %g, want 987.5", got)
	}
}

func TestRecordDBQueryCountsErrors(t *testing.T) {
	errsBefore := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "exec"))

	RecordDBQuery("postgres", "exec", 0.002, nil)
	if got := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "exec")) - errsBefore; got != 0 {
		t.Errorf("error delta after success = %g, want 0", got)
	}

	RecordDBQuery("postgres", "exec", 0.002, context.DeadlineExceeded)
	if got := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "exec")) - errsBefore; got != 1 {
		t.Errorf("error delta after failure = %g, want 1", got)
	}
}
