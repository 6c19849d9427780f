// Package exchange models venue microstructure: fill prices with
// spread and slippage, probabilistic order rejects, fees, leverage
// tiers, and liquidation math. Backtest and live execution share this
// one model so their behavior cannot diverge.
package exchange

import (
	"errors"
	"fmt"
	"math/rand"

	"short-trade-lab/internal/domain"
)

// Input errors. Business rejections are not errors; they are reported
// through FillResult.
var (
	ErrNonPositivePrice = errors.New("exchange: non-positive reference price")
	ErrNonPositiveSize  = errors.New("exchange: non-positive size")
)

// Model simulates order execution for one venue configuration.
// All randomness (slippage draw, reject draw) comes from the injected
// seeded source, so a fixed seed reproduces identical fills.
type Model struct {
	cfg domain.SimConfig
	rng *rand.Rand
}

// NewModel creates a microstructure model with a deterministic seed.
func NewModel(cfg domain.SimConfig, seed int64) *Model {
	return &Model{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Config returns the venue configuration the model was built with.
func (m *Model) Config() domain.SimConfig {
	return m.cfg
}

// FillResult is the outcome of one attempted fill.
type FillResult struct {
	Filled       bool
	Price        float64
	RejectReason string
}

// EntryFill attempts a short entry at the reference price.
// The fill lands at ref minus half the spread minus sampled slippage
// (worse than mid for the seller); with probability OrderRejectProb
// the attempt is rejected and consumes no state.
func (m *Model) EntryFill(ref float64) (FillResult, error) {
	if ref <= 0 {
		return FillResult{}, fmt.Errorf("%w: %g", ErrNonPositivePrice, ref)
	}

	// Fixed draw order: one reject draw per attempt, then one slippage
	// draw on filled attempts only. A rejected attempt consumes no
	// slippage draw.
	if m.rng.Float64() < m.cfg.OrderRejectProb {
		return FillResult{RejectReason: domain.RejectReasonOrderReject}, nil
	}

	slip := m.sampleSlippageBps()
	price := ref * (1 - (m.cfg.SpreadBps/2+slip)/10000)
	return FillResult{Filled: true, Price: price}, nil
}

// ExitFill prices a buy-to-cover at the reference price: ref plus half
// the spread plus sampled slippage. Closing fills are never rejected;
// the venue always lets a position be covered.
func (m *Model) ExitFill(ref float64) (FillResult, error) {
	if ref <= 0 {
		return FillResult{}, fmt.Errorf("%w: %g", ErrNonPositivePrice, ref)
	}

	slip := m.sampleSlippageBps()
	price := ref * (1 + (m.cfg.SpreadBps/2+slip)/10000)
	return FillResult{Filled: true, Price: price}, nil
}

// Fee returns the proportional fee for a fill of the given notional.
func (m *Model) Fee(notional float64) (float64, error) {
	if notional <= 0 {
		return 0, fmt.Errorf("%w: notional %g", ErrNonPositiveSize, notional)
	}
	return notional * m.cfg.FeeRate, nil
}

func (m *Model) sampleSlippageBps() float64 {
	if m.cfg.SlippageBps <= 0 {
		return 0
	}
	return m.rng.Float64() * m.cfg.SlippageBps
}
