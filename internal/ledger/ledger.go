// Package ledger tracks the single open position, realized and
// unrealized P&L, and equity. State changes only through Open,
// MarkToMarket, and Close; every successful Close appends exactly one
// trade record.
package ledger

import (
	"errors"
	"fmt"

	"short-trade-lab/internal/domain"
)

// Ledger errors. These are caller-policy failures, not panics: an
// Open on an open position or a Close while flat is reported and the
// bar loop continues.
var (
	ErrPositionOpen      = errors.New("ledger: position already open")
	ErrNoPosition        = errors.New("ledger: no open position")
	ErrMarginCapExceeded = errors.New("ledger: margin exceeds balance usage cap")
	ErrInsufficientFunds = errors.New("ledger: insufficient balance for margin and fee")
)

// Ledger holds balance, position, and the append-only trade log for
// one run. Not safe for concurrent use; each simulation run owns its
// own ledger.
type Ledger struct {
	runID  string
	symbol string

	startingBalance float64
	maxUsage        float64 // max fraction of equity usable as initial margin

	balance     float64 // free balance, margin excluded
	realizedPnL float64
	feeAccrued  float64

	position *domain.Position
	entryFee float64 // fee paid at the open of the current position
	trades   []domain.TradeRecord
}

// New creates a ledger for one run with the given starting balance
// and balance usage cap. Every record the ledger appends carries the
// run id and symbol, so persisted logs stay queryable by run.
func New(runID, symbol string, startingBalance, maxBalanceUsageFraction float64) *Ledger {
	return &Ledger{
		runID:           runID,
		symbol:          symbol,
		startingBalance: startingBalance,
		maxUsage:        maxBalanceUsageFraction,
		balance:         startingBalance,
	}
}

// Balance returns the free balance (margin excluded).
func (l *Ledger) Balance() float64 {
	return l.balance
}

// Equity returns realized equity: free balance plus allocated margin.
func (l *Ledger) Equity() float64 {
	if l.position != nil {
		return l.balance + l.position.Margin
	}
	return l.balance
}

// RealizedPnL returns cumulative net P&L of closed trades.
func (l *Ledger) RealizedPnL() float64 {
	return l.realizedPnL
}

// FeeAccrued returns cumulative fees debited.
func (l *Ledger) FeeAccrued() float64 {
	return l.feeAccrued
}

// Position returns the open position, or nil when flat.
func (l *Ledger) Position() *domain.Position {
	return l.position
}

// MaxMargin returns the largest margin the balance usage cap allows
// at the current equity.
func (l *Ledger) MaxMargin() float64 {
	return l.maxUsage * l.Equity()
}

// Open allocates margin for a new position and debits the entry fee.
// Fails without state change when a position is already open, when the
// margin exceeds the balance usage cap, or when balance cannot cover
// margin plus fee.
func (l *Ledger) Open(pos domain.Position, entryFee float64) error {
	if l.position != nil {
		return ErrPositionOpen
	}
	if pos.Margin <= 0 || pos.Qty <= 0 || pos.EntryPrice <= 0 {
		return fmt.Errorf("ledger: invalid position: margin=%g qty=%g entry=%g", pos.Margin, pos.Qty, pos.EntryPrice)
	}
	if pos.Margin > l.MaxMargin() {
		return ErrMarginCapExceeded
	}
	if pos.Margin+entryFee > l.balance {
		return ErrInsufficientFunds
	}

	l.balance -= pos.Margin + entryFee
	l.feeAccrued += entryFee
	l.entryFee = entryFee

	p := pos
	l.position = &p
	return nil
}

// MarkToMarket returns equity at the given mark price, including
// unrealized P&L of the open short. It never appends a record.
func (l *Ledger) MarkToMarket(price float64) float64 {
	if l.position == nil {
		return l.balance
	}
	unrealized := (l.position.EntryPrice - price) * l.position.Qty
	equity := l.balance + l.position.Margin + unrealized
	if equity < 0 {
		equity = 0
	}
	return equity
}

// Close covers the open short at the given exit fill price, debits the
// exit fee, releases margin, and appends one trade record. A
// liquidation forfeits the entire margin; no proceeds return to the
// balance.
func (l *Ledger) Close(tradeID string, exitTime int64, exitPrice, exitFee float64, reason string) (domain.TradeRecord, error) {
	if l.position == nil {
		return domain.TradeRecord{}, ErrNoPosition
	}

	pos := *l.position
	var netPnL float64

	if reason == domain.ExitReasonLiquidation {
		netPnL = -pos.Margin
		// Margin is consumed by the venue; balance stays as is.
	} else {
		gross := (pos.EntryPrice - exitPrice) * pos.Qty
		// Entry fee was debited from the balance at open; net it into
		// the record so PnL matches the trade's equity impact.
		netPnL = gross - exitFee - l.entryFee
		l.balance += pos.Margin + gross - exitFee
		l.feeAccrued += exitFee
	}
	if l.balance < 0 {
		l.balance = 0
	}

	l.realizedPnL += netPnL

	rec := domain.TradeRecord{
		TradeID:    tradeID,
		RunID:      l.runID,
		Symbol:     l.symbol,
		EntryTime:  pos.OpenedAt,
		ExitTime:   exitTime,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Qty:        pos.Qty,
		Leverage:   pos.Leverage,
		Margin:     pos.Margin,
		FeeTotal:   l.entryFee + exitFee,
		PnL:        netPnL,
		PnLPct:     netPnL / l.startingBalance * 100,
		ExitReason: reason,
	}
	l.trades = append(l.trades, rec)
	l.position = nil
	l.entryFee = 0

	return rec, nil
}

// RecordBlock appends a rejected/blocked attempt. No position change
// occurred; the record exists for observability and block accounting.
func (l *Ledger) RecordBlock(tradeID string, barTime int64, refPrice float64, reason string) domain.TradeRecord {
	rec := domain.TradeRecord{
		TradeID:      tradeID,
		RunID:        l.runID,
		Symbol:       l.symbol,
		EntryTime:    barTime,
		EntryPrice:   refPrice,
		Rejected:     true,
		RejectReason: reason,
	}
	l.trades = append(l.trades, rec)
	return rec
}

// Trades returns the append-only trade log.
func (l *Ledger) Trades() []domain.TradeRecord {
	return l.trades
}
