package storage

import (
	"context"

	"short-trade-lab/internal/domain"
)

// TradeRecordStore provides access to trade_records storage.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByRunID retrieves all trades of a simulation run, ordered by entry time ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.TradeRecord, error)

	// GetBySymbol retrieves all trades for a symbol, ordered by entry time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error)
}

// BestParamsStore provides access to best_params storage. Each
// optimization run appends one row; the latest row per symbol is the
// active parameter set.
type BestParamsStore interface {
	// Insert adds a new best-params row. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, b *domain.BestParams) error

	// GetByRunID retrieves a row by its run ID. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.BestParams, error)

	// GetLatest retrieves the most recently generated row for a symbol.
	// Returns ErrNotFound when the symbol has never been optimized.
	GetLatest(ctx context.Context, symbol string) (*domain.BestParams, error)

	// GetBySymbol retrieves all rows for a symbol, ordered by generated_at ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.BestParams, error)
}

// OptimizationQueueStore provides access to optimization_queue
// storage, the ledger of scheduled re-optimization jobs.
type OptimizationQueueStore interface {
	// Enqueue adds a job. Returns ErrDuplicateKey if job_id exists.
	Enqueue(ctx context.Context, j *domain.OptimizationJob) error

	// GetByJobID retrieves a job by its ID. Returns ErrNotFound if not exists.
	GetByJobID(ctx context.Context, jobID string) (*domain.OptimizationJob, error)

	// GetDue retrieves jobs with ready_at <= now, ordered by ready_at ASC.
	GetDue(ctx context.Context, now int64) ([]*domain.OptimizationJob, error)

	// GetBySymbol retrieves all jobs for a symbol, ordered by queued_at ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.OptimizationJob, error)
}

// BarStore provides access to OHLCV bar storage.
type BarStore interface {
	// InsertBulk adds multiple bars for a symbol/interval. Fails entire
	// batch on duplicate (symbol, interval_min, open_time).
	InsertBulk(ctx context.Context, symbol string, intervalMin int, bars []domain.Bar) error

	// GetBySymbol retrieves all bars for a symbol/interval, ordered by open_time ASC.
	GetBySymbol(ctx context.Context, symbol string, intervalMin int) ([]domain.Bar, error)

	// GetByTimeRange retrieves bars within [start, end] (inclusive), ordered by open_time ASC.
	GetByTimeRange(ctx context.Context, symbol string, intervalMin int, start, end int64) ([]domain.Bar, error)
}
