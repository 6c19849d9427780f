package domain

// Side of a position. Only short entries are generated by the rule set;
// flat means no open position.
type Side string

// Side constants.
const (
	SideShort Side = "short"
	SideFlat  Side = "flat"
)

// Position is the single open position, if any.
// Created on a qualifying entry while flat; destroyed on any exit
// (take-profit, structured, momentum, or liquidation). No pyramiding.
type Position struct {
	Side       Side
	EntryPrice float64
	Qty        float64 // base units
	Margin     float64 // collateral allocated at open
	Leverage   float64 // effective leverage after tier resolution and clamping
	LiqPrice   float64 // forced-close price for the given leverage/margin mode
	ExitTarget float64 // structured/take-profit target resolved at entry
	OpenedAt   int64   // entry bar open time (ms)
}

// Notional returns the position's notional value at entry.
func (p Position) Notional() float64 {
	return p.EntryPrice * p.Qty
}
