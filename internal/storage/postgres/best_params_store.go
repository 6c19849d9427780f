package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
)

// BestParamsStore implements storage.BestParamsStore using PostgreSQL.
type BestParamsStore struct {
	pool *Pool
}

// NewBestParamsStore creates a new BestParamsStore.
func NewBestParamsStore(pool *Pool) *BestParamsStore {
	return &BestParamsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BestParamsStore = (*BestParamsStore)(nil)

const bestParamsColumns = `
	run_id, generated_at, symbol, interval_min,
	lookback, exit_type, risk_fraction, take_profit_pct,
	pnl_value, pnl_pct, final_balance,
	total_trades, wins, losses, win_rate,
	avg_win, avg_loss, rr_ratio, sharpe, max_drawdown, blocked,
	leverage, spread_bps, slippage_bps, order_reject_pct
`

// Insert adds a new best-params row. Returns ErrDuplicateKey if run_id exists.
func (s *BestParamsStore) Insert(ctx context.Context, b *domain.BestParams) error {
	query := `
		INSERT INTO best_params (` + bestParamsColumns + `) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21,
			$22, $23, $24, $25
		)
	`

	_, err := s.pool.Exec(ctx, query,
		b.RunID, b.GeneratedAt, b.Symbol, b.IntervalMin,
		b.Params.Lookback, b.Params.ExitType, b.Params.RiskFraction, b.Params.TakeProfitPct,
		b.Summary.PnLValue, b.Summary.PnLPct, b.Summary.FinalBalance,
		b.Summary.TotalTrades, b.Summary.Wins, b.Summary.Losses, b.Summary.WinRate,
		b.Summary.AvgWin, b.Summary.AvgLoss, b.Summary.RRRatio, b.Summary.Sharpe, b.Summary.MaxDrawdown, b.Summary.Blocked,
		b.Leverage, b.SpreadBps, b.SlippageBps, b.OrderRejectPct,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert best params: %w", err)
	}
	return nil
}

// GetByRunID retrieves a row by its run ID. Returns ErrNotFound if not exists.
func (s *BestParamsStore) GetByRunID(ctx context.Context, runID string) (*domain.BestParams, error) {
	query := `SELECT` + bestParamsColumns + `FROM best_params WHERE run_id = $1`

	row := s.pool.QueryRow(ctx, query, runID)
	b, err := scanBestParams(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get best params by run id: %w", err)
	}
	return b, nil
}

// GetLatest retrieves the most recently generated row for a symbol.
func (s *BestParamsStore) GetLatest(ctx context.Context, symbol string) (*domain.BestParams, error) {
	query := `SELECT` + bestParamsColumns + `
		FROM best_params
		WHERE symbol = $1
		ORDER BY generated_at DESC, run_id DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, symbol)
	b, err := scanBestParams(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest best params: %w", err)
	}
	return b, nil
}

// GetBySymbol retrieves all rows for a symbol, ordered by generated_at ASC.
func (s *BestParamsStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.BestParams, error) {
	query := `SELECT` + bestParamsColumns + `
		FROM best_params
		WHERE symbol = $1
		ORDER BY generated_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get best params by symbol: %w", err)
	}
	defer rows.Close()

	var result []*domain.BestParams
	for rows.Next() {
		b, err := scanBestParams(rows)
		if err != nil {
			return nil, fmt.Errorf("scan best params row: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate best params rows: %w", err)
	}
	return result, nil
}

// scanBestParams scans a single row into a BestParams.
func scanBestParams(row pgx.Row) (*domain.BestParams, error) {
	var b domain.BestParams

	err := row.Scan(
		&b.RunID, &b.GeneratedAt, &b.Symbol, &b.IntervalMin,
		&b.Params.Lookback, &b.Params.ExitType, &b.Params.RiskFraction, &b.Params.TakeProfitPct,
		&b.Summary.PnLValue, &b.Summary.PnLPct, &b.Summary.FinalBalance,
		&b.Summary.TotalTrades, &b.Summary.Wins, &b.Summary.Losses, &b.Summary.WinRate,
		&b.Summary.AvgWin, &b.Summary.AvgLoss, &b.Summary.RRRatio, &b.Summary.Sharpe, &b.Summary.MaxDrawdown, &b.Summary.Blocked,
		&b.Leverage, &b.SpreadBps, &b.SlippageBps, &b.OrderRejectPct,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
