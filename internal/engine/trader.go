package engine

import (
	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/exchange"
	"short-trade-lab/internal/idhash"
	"short-trade-lab/internal/ledger"
	"short-trade-lab/internal/rules"
)

// Outcome classifies what one evaluated bar did to the position.
type Outcome string

// Outcome constants.
const (
	OutcomeNoop       Outcome = "noop"
	OutcomeOpened     Outcome = "opened"
	OutcomeClosed     Outcome = "closed"
	OutcomeLiquidated Outcome = "liquidated"
	OutcomeBlocked    Outcome = "blocked"
)

// Trader applies the entry/exit rules and microstructure model to one
// ledger, bar by bar. The simulation engine and the live execution
// loop both run through this type, so their fill, sizing, and
// liquidation behavior cannot diverge.
type Trader struct {
	cfg    domain.SimConfig
	params domain.ParameterSet
	model  *exchange.Model
	led    *ledger.Ledger
	runID  string

	lastRecord *domain.TradeRecord
}

// NewTrader creates a trader over an existing model and ledger.
func NewTrader(cfg domain.SimConfig, params domain.ParameterSet, model *exchange.Model, led *ledger.Ledger, runID string) *Trader {
	return &Trader{cfg: cfg, params: params, model: model, led: led, runID: runID}
}

// Ledger exposes the trader's ledger for equity marks and the trade log.
func (t *Trader) Ledger() *ledger.Ledger {
	return t.led
}

// LastRecord returns the trade or block record produced by the most
// recent EvalBar, or nil when the bar was a no-op.
func (t *Trader) LastRecord() *domain.TradeRecord {
	return t.lastRecord
}

// EvalBar processes bar i of the evaluator's series: entry evaluation
// while flat, then the exit chain while open. Entry and exit may both
// act on the same bar; the returned outcome reports the terminal one.
func (t *Trader) EvalBar(ev *rules.Evaluator, i int) (Outcome, error) {
	t.lastRecord = nil
	outcome := OutcomeNoop
	bar := ev.BarAt(i)

	if t.led.Position() == nil && t.led.Balance() > 0 && ev.EntrySignal(i) {
		o, err := t.tryOpen(ev, bar, i)
		if err != nil {
			return OutcomeNoop, err
		}
		outcome = o
	}

	if t.led.Position() != nil {
		o, err := t.checkExits(ev, bar, i)
		if err != nil {
			return OutcomeNoop, err
		}
		if o != OutcomeNoop {
			outcome = o
		}
	}

	return outcome, nil
}

// tryOpen sizes and attempts a short entry at the bar close. Business
// rejections are recorded on the ledger and reported as blocked; only
// malformed input errors propagate.
func (t *Trader) tryOpen(ev *rules.Evaluator, bar domain.Bar, i int) (Outcome, error) {
	block := func(reason string) Outcome {
		id := idhash.ComputeTradeID(t.runID, t.cfg.Symbol, t.params.ID()+"|"+reason, bar.OpenTime, bar.Close)
		rec := t.led.RecordBlock(id, bar.OpenTime, bar.Close, reason)
		t.lastRecord = &rec
		return OutcomeBlocked
	}

	risk := t.params.RiskFraction
	if risk <= 0 {
		return block(domain.RejectReasonZeroRisk), nil
	}
	if risk > 1 {
		risk = 1
	}

	margin := t.led.Equity() * risk
	if cap := t.led.MaxMargin(); margin > cap {
		// Balance-usage clamp, Bybit-style: shrink to the cap rather
		// than rejecting outright.
		margin = cap
	}
	if margin < t.cfg.MinNotional {
		return block(domain.RejectReasonMinNotional), nil
	}

	leverage := exchange.ResolveLeverage(margin, t.cfg.DesiredLeverage, t.cfg)
	notional := margin * leverage
	if notional < t.cfg.MinNotional {
		return block(domain.RejectReasonMinNotional), nil
	}

	fill, err := t.model.EntryFill(bar.Close)
	if err != nil {
		return OutcomeNoop, err
	}
	if !fill.Filled {
		return block(fill.RejectReason), nil
	}

	entryFee, err := t.model.Fee(notional)
	if err != nil {
		return OutcomeNoop, err
	}

	pos := domain.Position{
		Side:       domain.SideShort,
		EntryPrice: fill.Price,
		Qty:        notional / fill.Price,
		Margin:     margin,
		Leverage:   leverage,
		LiqPrice:   exchange.LiqPriceShort(fill.Price, leverage, t.cfg.MaintenanceMarginRate),
		ExitTarget: ev.ExitTarget(i, fill.Price),
		OpenedAt:   bar.OpenTime,
	}

	if err := t.led.Open(pos, entryFee); err != nil {
		switch err {
		case ledger.ErrMarginCapExceeded:
			return block(domain.RejectReasonBalanceCap), nil
		case ledger.ErrInsufficientFunds:
			return block(domain.RejectReasonInsufficient), nil
		default:
			return OutcomeNoop, err
		}
	}
	return OutcomeOpened, nil
}

// checkExits applies the fixed exit priority: liquidation, then the
// cover target, then the momentum exit. The first predicate that
// fires closes the whole position.
func (t *Trader) checkExits(ev *rules.Evaluator, bar domain.Bar, i int) (Outcome, error) {
	pos := t.led.Position()

	close := func(reason string, exitPrice, exitFee float64) (Outcome, error) {
		id := idhash.ComputeTradeID(t.runID, t.cfg.Symbol, reason, pos.OpenedAt, pos.EntryPrice)
		rec, err := t.led.Close(id, bar.OpenTime, exitPrice, exitFee, reason)
		if err != nil {
			return OutcomeNoop, err
		}
		t.lastRecord = &rec
		if reason == domain.ExitReasonLiquidation {
			return OutcomeLiquidated, nil
		}
		return OutcomeClosed, nil
	}

	switch {
	case bar.High >= pos.LiqPrice:
		// Forced close exactly at the liquidation price; margin is
		// forfeited, no fill adjustment applies.
		return close(domain.ExitReasonLiquidation, pos.LiqPrice, 0)

	case bar.Low <= pos.ExitTarget:
		fill, err := t.model.ExitFill(pos.ExitTarget)
		if err != nil {
			return OutcomeNoop, err
		}
		exitFee, err := t.model.Fee(fill.Price * pos.Qty)
		if err != nil {
			return OutcomeNoop, err
		}
		return close(ev.StructuredReason(), fill.Price, exitFee)

	case ev.MomentumExit(i):
		fill, err := t.model.ExitFill(bar.Close)
		if err != nil {
			return OutcomeNoop, err
		}
		exitFee, err := t.model.Fee(fill.Price * pos.Qty)
		if err != nil {
			return OutcomeNoop, err
		}
		return close(domain.ExitReasonMomentum, fill.Price, exitFee)
	}

	return OutcomeNoop, nil
}
