package domain

// SummaryMetrics are the per-run aggregates computed from a trade log
// and equity curve.
type SummaryMetrics struct {
	PnLValue     float64 // final equity minus starting balance
	PnLPct       float64
	FinalBalance float64

	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // percent

	AvgWin  float64 // mean winning trade, percent of starting balance
	AvgLoss float64 // mean losing trade, percent of starting balance
	RRRatio float64 // avg win / |avg loss|; zero when undefined

	Sharpe      float64
	MaxDrawdown float64 // worst peak-to-trough of the equity curve, fraction

	Blocked int // rejected/blocked entry attempts
}

// GridResult is the outcome of evaluating one grid point.
type GridResult struct {
	GridIndex int // position in canonical enumeration order
	Params    ParameterSet
	Summary   SummaryMetrics
	Trades    []TradeRecord // retained only when trade capture was requested
	Err       error         // per-point failure; isolated from sibling points
}

// BestParams is the persisted winning record of an optimization run.
type BestParams struct {
	RunID       string
	GeneratedAt int64 // ms
	Symbol      string
	IntervalMin int
	Params      ParameterSet
	Summary     SummaryMetrics

	// Microstructure settings echoed so a live session can verify it
	// replays against the same fill model that was backtested.
	Leverage       float64
	SpreadBps      float64
	SlippageBps    float64
	OrderRejectPct float64
}

// OptimizationJob is one append-only record of the re-optimization
// queue: when the sweep ran and when the next one becomes due.
type OptimizationJob struct {
	JobID          string
	Symbol         string
	QueuedAt       int64 // ms
	ReadyAt        int64 // ms; QueuedAt + cadence
	ElapsedSeconds float64
	Params         ParameterSet
	Summary        SummaryMetrics
}
