package live

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/engine"
	"short-trade-lab/internal/exchange"
	"short-trade-lab/internal/ledger"
	"short-trade-lab/internal/observability"
	"short-trade-lab/internal/rules"
	"short-trade-lab/internal/series"
)

// windowPadding is how many bars the rolling window keeps beyond the
// rule warmup, so indicators are stable at the evaluated bar.
const windowPadding = 64

// Loop drives the exact per-bar decision path the backtest uses over
// a streaming bar source. Decisions for a bar are made only after the
// bar closes; fills and risk come from the same model the optimizer
// ranked parameters with.
type Loop struct {
	cfg      domain.SimConfig
	params   domain.ParameterSet
	ruleCfg  rules.Config
	trader   *engine.Trader
	sub      OrderSubmitter
	log      zerolog.Logger
	session  string
	standBy  bool
	window   []domain.Bar
	maxBars  int
	lastOpen int64
}

// NewLoop builds a loop for the given parameters and entry rule
// configuration. best carries the summary the parameters scored in
// optimization; a non-positive PnL puts the loop in stand-aside mode,
// where bars are consumed but no orders are produced.
func NewLoop(cfg domain.SimConfig, ruleCfg rules.Config, params domain.ParameterSet, best domain.SummaryMetrics, sub OrderSubmitter, log zerolog.Logger, seed int64) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("validate params: %w", err)
	}

	session := uuid.NewString()
	model := exchange.NewModel(cfg, seed)
	led := ledger.New(session, cfg.Symbol, cfg.StartingBalance, cfg.MaxBalanceUsageFraction)
	trader := engine.NewTrader(cfg, params, model, led, session)

	warmup := rules.WarmupFor(params, ruleCfg)

	l := &Loop{
		cfg:     cfg,
		params:  params,
		ruleCfg: ruleCfg,
		trader:  trader,
		sub:     sub,
		log: log.With().
			Str("component", "live_loop").
			Str("session_id", session).
			Str("symbol", cfg.Symbol).
			Str("params", params.ID()).
			Logger(),
		session: session,
		standBy: best.PnLValue <= 0,
		maxBars: warmup + windowPadding,
	}

	if l.standBy {
		l.log.Warn().
			Float64("best_pnl", best.PnLValue).
			Msg("best parameters show no edge, standing aside")
	}
	return l, nil
}

// SessionID returns the loop's session identifier.
func (l *Loop) SessionID() string {
	return l.session
}

// Ledger exposes the session ledger for reporting.
func (l *Loop) Ledger() *ledger.Ledger {
	return l.trader.Ledger()
}

// StandingAside reports whether the loop is consuming bars without
// trading.
func (l *Loop) StandingAside() bool {
	return l.standBy
}

// Step feeds one closed bar to the loop and returns the decision
// outcome. Stale and duplicate bars are ignored, which lets stream
// reconnects replay recent history without corrupting the ledger.
func (l *Loop) Step(ctx context.Context, bar domain.Bar) (engine.Outcome, error) {
	if err := bar.Validate(); err != nil {
		return engine.OutcomeNoop, fmt.Errorf("validate bar: %w", err)
	}
	if bar.OpenTime <= l.lastOpen {
		return engine.OutcomeNoop, nil
	}
	l.lastOpen = bar.OpenTime

	l.window = append(l.window, bar)
	if len(l.window) > l.maxBars {
		l.window = l.window[len(l.window)-l.maxBars:]
	}
	observability.RecordLiveBar(l.trader.Ledger().MarkToMarket(bar.Close))

	if l.standBy {
		return engine.OutcomeNoop, nil
	}
	if len(l.window) < l.maxBars {
		return engine.OutcomeNoop, nil
	}

	s, err := series.New(l.window)
	if err != nil {
		return engine.OutcomeNoop, fmt.Errorf("build window: %w", err)
	}
	ev, err := rules.NewEvaluator(s, l.params, l.ruleCfg)
	if err != nil {
		return engine.OutcomeNoop, fmt.Errorf("build evaluator: %w", err)
	}

	before := l.trader.Ledger().Position()
	outcome, err := l.trader.EvalBar(ev, s.Len()-1)
	if err != nil {
		return outcome, fmt.Errorf("evaluate bar: %w", err)
	}

	if err := l.dispatch(ctx, outcome, before, bar); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// dispatch turns a trader outcome into submitter intents and logs.
func (l *Loop) dispatch(ctx context.Context, outcome engine.Outcome, before *domain.Position, bar domain.Bar) error {
	switch outcome {
	case engine.OutcomeOpened:
		pos := l.trader.Ledger().Position()
		if pos == nil {
			return nil
		}
		intent := OrderIntent{
			SessionID: l.session,
			Symbol:    l.cfg.Symbol,
			Side:      pos.Side,
			Qty:       pos.Qty,
			Price:     pos.EntryPrice,
			Leverage:  pos.Leverage,
			Reason:    "entry",
			BarTime:   bar.OpenTime,
		}
		if err := l.sub.Submit(ctx, intent); err != nil {
			return fmt.Errorf("submit entry: %w", err)
		}
		observability.RecordOrderSubmitted(intent.Reason)
		l.log.Info().
			Float64("entry_price", pos.EntryPrice).
			Float64("qty", pos.Qty).
			Float64("leverage", pos.Leverage).
			Float64("liq_price", pos.LiqPrice).
			Float64("exit_target", pos.ExitTarget).
			Msg("position opened")

	case engine.OutcomeClosed, engine.OutcomeLiquidated:
		rec := l.trader.LastRecord()
		if rec == nil || before == nil {
			return nil
		}
		intent := OrderIntent{
			SessionID: l.session,
			Symbol:    l.cfg.Symbol,
			Side:      before.Side,
			Qty:       before.Qty,
			Price:     rec.ExitPrice,
			Leverage:  before.Leverage,
			Reduce:    true,
			Reason:    rec.ExitReason,
			BarTime:   bar.OpenTime,
		}
		if err := l.sub.Submit(ctx, intent); err != nil {
			return fmt.Errorf("submit exit: %w", err)
		}
		observability.RecordOrderSubmitted(intent.Reason)
		evt := l.log.Info()
		if outcome == engine.OutcomeLiquidated {
			evt = l.log.Warn()
		}
		evt.
			Float64("exit_price", rec.ExitPrice).
			Float64("pnl", rec.PnL).
			Float64("balance", l.trader.Ledger().Balance()).
			Str("exit_reason", rec.ExitReason).
			Msg("position closed")

	case engine.OutcomeBlocked:
		rec := l.trader.LastRecord()
		if rec != nil {
			l.log.Info().
				Str("reject_reason", rec.RejectReason).
				Msg("entry blocked")
		}
	}
	return nil
}

// Run consumes bars from the stream until it ends or the context is
// cancelled. Cancellation is honored between bars; a bar already
// taken from the stream is always fully processed.
func (l *Loop) Run(ctx context.Context, stream BarStream) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		bar, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrStreamExhausted) {
				l.log.Info().Msg("bar stream ended")
				return nil
			}
			return fmt.Errorf("next bar: %w", err)
		}

		if _, err := l.Step(ctx, bar); err != nil {
			l.log.Error().Err(err).Int64("bar_time", bar.OpenTime).Msg("step failed")
		}
	}
}
