package domain

// TradeRecord is one append-only entry of the trade log.
// Closed trades and blocked/rejected attempts both land here; the log
// is the sole artifact consumed by scoring.
type TradeRecord struct {
	TradeID string // deterministic hash
	RunID   string // simulation or live session identifier
	Symbol  string

	EntryTime  int64 // entry bar open time (ms)
	ExitTime   int64 // exit bar open time (ms); zero for blocked attempts
	EntryPrice float64
	ExitPrice  float64
	Qty        float64
	Leverage   float64
	Margin     float64

	FeeTotal float64 // entry + exit fees on notional
	PnL      float64 // net of fees
	PnLPct   float64 // relative to starting balance

	ExitReason string // reason code for closed trades

	// Blocked attempts: no position change occurred.
	Rejected     bool
	RejectReason string
}

// Exit reason codes.
const (
	ExitReasonTakeProfit  = "take_profit"
	ExitReasonStructured  = "structured_target"
	ExitReasonMomentum    = "momentum_exit"
	ExitReasonLiquidation = "liquidation"
)

// Reject reason codes. All are business rejections: recorded, non-fatal.
const (
	RejectReasonOrderReject  = "order_reject"
	RejectReasonMinNotional  = "min_notional"
	RejectReasonBalanceCap   = "balance_cap"
	RejectReasonZeroRisk     = "zero_risk_fraction"
	RejectReasonInsufficient = "insufficient_balance"
)
