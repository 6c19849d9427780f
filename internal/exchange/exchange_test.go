package exchange

import (
	"errors"
	"math"
	"testing"

	"short-trade-lab/internal/domain"
)

func baseConfig() domain.SimConfig {
	cfg := domain.DefaultSimConfig()
	cfg.SpreadBps = 0
	cfg.SlippageBps = 0
	cfg.OrderRejectProb = 0
	return cfg
}

func TestResolveLeverageTiers(t *testing.T) {
	cfg := domain.DefaultSimConfig()

	tests := []struct {
		name      string
		margin    float64
		requested float64
		want      float64
	}{
		{"small notional keeps requested", 100, 3, 3},
		{"clamped to max leverage", 100, 80, 50},
		{"clamped below one", 100, 0.5, 1},
		{"50k notional keeps first tier", 1000, 50, 50},
		{"100k intended hits second tier", 2000, 50, 25},
		{"150k intended hits third tier", 3000, 50, 10},
		{"1m intended capped by last tier", 20000, 50, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLeverage(tt.margin, tt.requested, cfg); got != tt.want {
				t.Fatalf("ResolveLeverage(%g, %g) = %g, want %g", tt.margin, tt.requested, got, tt.want)
			}
		})
	}
}

func TestResolveLeverageNoTiers(t *testing.T) {
	cfg := domain.DefaultSimConfig()
	cfg.LeverageTiers = nil
	if got := ResolveLeverage(1e9, 20, cfg); got != 20 {
		t.Fatalf("ResolveLeverage without tiers = %g, want 20", got)
	}
}

func TestLiqPriceShort(t *testing.T) {
	// entry 100, 10x, mmr 0.004: 100 * (1 + 0.1 - 0.004) = 109.6
	got := LiqPriceShort(100, 10, 0.004)
	if math.Abs(got-109.6) > 1e-9 {
		t.Fatalf("LiqPriceShort = %g, want 109.6", got)
	}

	// Higher leverage moves the liquidation price closer to entry.
	closer := LiqPriceShort(100, 50, 0.004)
	if closer >= got {
		t.Fatalf("50x liq %g not closer than 10x liq %g", closer, got)
	}
}

func TestEntryFillExactWithoutFriction(t *testing.T) {
	m := NewModel(baseConfig(), 1)
	fill, err := m.EntryFill(100)
	if err != nil {
		t.Fatalf("EntryFill: %v", err)
	}
	if !fill.Filled || fill.Price != 100 {
		t.Fatalf("fill = %+v, want filled at 100", fill)
	}
}

func TestEntryFillAppliesSpreadAndSlippage(t *testing.T) {
	cfg := baseConfig()
	cfg.SpreadBps = 2
	cfg.SlippageBps = 3
	m := NewModel(cfg, 1)

	fill, err := m.EntryFill(100)
	if err != nil {
		t.Fatalf("EntryFill: %v", err)
	}
	if !fill.Filled {
		t.Fatal("expected fill")
	}
	// Short entry fills at or below mid minus half spread, bounded by
	// the slippage budget.
	upper := 100 * (1 - cfg.SpreadBps/2/10000)
	lower := 100 * (1 - (cfg.SpreadBps/2+cfg.SlippageBps)/10000)
	if fill.Price > upper || fill.Price < lower {
		t.Fatalf("entry price %g outside [%g, %g]", fill.Price, lower, upper)
	}
}

func TestExitFillWorseThanReference(t *testing.T) {
	cfg := baseConfig()
	cfg.SpreadBps = 2
	cfg.SlippageBps = 3
	m := NewModel(cfg, 1)

	fill, err := m.ExitFill(100)
	if err != nil {
		t.Fatalf("ExitFill: %v", err)
	}
	if !fill.Filled || fill.Price <= 100 {
		t.Fatalf("buy-to-cover at %g, want above reference", fill.Price)
	}
}

func TestFillDeterminism(t *testing.T) {
	cfg := baseConfig()
	cfg.SpreadBps = 2
	cfg.SlippageBps = 3
	cfg.OrderRejectProb = 0.2

	a := NewModel(cfg, 42)
	b := NewModel(cfg, 42)

	for i := 0; i < 50; i++ {
		fa, err := a.EntryFill(100)
		if err != nil {
			t.Fatalf("EntryFill a: %v", err)
		}
		fb, err := b.EntryFill(100)
		if err != nil {
			t.Fatalf("EntryFill b: %v", err)
		}
		if fa != fb {
			t.Fatalf("iteration %d: fills diverged: %+v vs %+v", i, fa, fb)
		}
	}
}

func TestRejectDraw(t *testing.T) {
	cfg := baseConfig()
	cfg.OrderRejectProb = 0.999999
	m := NewModel(cfg, 1)

	fill, err := m.EntryFill(100)
	if err != nil {
		t.Fatalf("EntryFill: %v", err)
	}
	if fill.Filled {
		t.Fatal("expected reject at ~certain reject probability")
	}
	if fill.RejectReason != domain.RejectReasonOrderReject {
		t.Fatalf("reject reason = %q", fill.RejectReason)
	}

	// Exits are never rejected.
	exit, err := m.ExitFill(100)
	if err != nil {
		t.Fatalf("ExitFill: %v", err)
	}
	if !exit.Filled {
		t.Fatal("exit fill must not be rejected")
	}
}

func TestFee(t *testing.T) {
	m := NewModel(baseConfig(), 1)
	fee, err := m.Fee(5000)
	if err != nil {
		t.Fatalf("Fee: %v", err)
	}
	if math.Abs(fee-5) > 1e-12 {
		t.Fatalf("Fee(5000) = %g, want 5", fee)
	}

	if _, err := m.Fee(0); !errors.Is(err, ErrNonPositiveSize) {
		t.Fatalf("expected ErrNonPositiveSize, got %v", err)
	}
}

func TestFillInputValidation(t *testing.T) {
	m := NewModel(baseConfig(), 1)
	if _, err := m.EntryFill(0); !errors.Is(err, ErrNonPositivePrice) {
		t.Fatalf("EntryFill(0): %v", err)
	}
	if _, err := m.ExitFill(-1); !errors.Is(err, ErrNonPositivePrice) {
		t.Fatalf("ExitFill(-1): %v", err)
	}
}
