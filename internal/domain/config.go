package domain

import "fmt"

// LeverageTier caps leverage by position notional, Bybit-style: the
// first tier whose notional cap is not exceeded decides the maximum.
type LeverageTier struct {
	NotionalCap float64
	MaxLeverage float64
}

// SimConfig is the shared microstructure/venue configuration used
// identically by backtest and live execution.
type SimConfig struct {
	Symbol      string
	IntervalMin int // bar aggregation in minutes

	StartingBalance float64

	// Fill model
	FeeRate         float64 // proportional fee on notional, per fill
	SpreadBps       float64 // simulated spread in basis points
	SlippageBps     float64 // additional slippage bound beyond spread
	OrderRejectProb float64 // probability an order is rejected per attempt

	// Leverage and liquidation
	DesiredLeverage       float64
	MaxLeverage           float64
	LeverageTiers         []LeverageTier
	MaintenanceMarginRate float64

	// Sizing constraints
	MinNotional             float64
	MaxBalanceUsageFraction float64 // cap on equity usable as initial margin
	MinTakeProfitPct        float64 // floor for take-profit candidates
}

// DefaultSimConfig returns the canonical linear-perp configuration.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Symbol:          "SOLUSDT",
		IntervalMin:     5,
		StartingBalance: 472,

		FeeRate:         0.001,
		SpreadBps:       2,
		SlippageBps:     3,
		OrderRejectProb: 0.01,

		DesiredLeverage: 3,
		MaxLeverage:     50,
		LeverageTiers: []LeverageTier{
			{NotionalCap: 50000, MaxLeverage: 50},
			{NotionalCap: 100000, MaxLeverage: 25},
			{NotionalCap: 250000, MaxLeverage: 10},
		},
		MaintenanceMarginRate: 0.004,

		MinNotional:             5,
		MaxBalanceUsageFraction: 0.9,
		MinTakeProfitPct:        0.0022,
	}
}

// Validate checks configuration ranges.
func (c SimConfig) Validate() error {
	if c.StartingBalance <= 0 {
		return fmt.Errorf("sim config: starting balance must be positive, got %g", c.StartingBalance)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("sim config: fee rate must be in [0,1), got %g", c.FeeRate)
	}
	if c.OrderRejectProb < 0 || c.OrderRejectProb >= 1 {
		return fmt.Errorf("sim config: order reject probability must be in [0,1), got %g", c.OrderRejectProb)
	}
	if c.DesiredLeverage < 1 {
		return fmt.Errorf("sim config: desired leverage must be >= 1, got %g", c.DesiredLeverage)
	}
	if c.MaxLeverage < 1 {
		return fmt.Errorf("sim config: max leverage must be >= 1, got %g", c.MaxLeverage)
	}
	if c.MaintenanceMarginRate < 0 || c.MaintenanceMarginRate >= 1 {
		return fmt.Errorf("sim config: maintenance margin rate must be in [0,1), got %g", c.MaintenanceMarginRate)
	}
	if c.MaxBalanceUsageFraction <= 0 || c.MaxBalanceUsageFraction > 1 {
		return fmt.Errorf("sim config: max balance usage fraction must be in (0,1], got %g", c.MaxBalanceUsageFraction)
	}
	return nil
}
