// Package reporting renders optimization results as CSV and Markdown
// artifacts and round-trips the best-params JSON file.
package reporting

import (
	"time"

	"short-trade-lab/internal/domain"
)

// Report is the rendered summary of one optimization sweep.
type Report struct {
	GeneratedAt time.Time
	Symbol      string
	IntervalMin int

	GridSize  int
	Evaluated int
	Failures  []string

	// Best is nil when no grid point produced a viable result.
	Best *domain.BestParams

	// TopResults are the highest ranked grid points, best first.
	TopResults []domain.GridResult

	// WinnerTrades is the winner's replayed trade log, when captured.
	WinnerTrades []domain.TradeRecord
}
