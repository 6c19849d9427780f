package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
)

// OptimizationQueueStore implements storage.OptimizationQueueStore
// using PostgreSQL.
type OptimizationQueueStore struct {
	pool *Pool
}

// NewOptimizationQueueStore creates a new OptimizationQueueStore.
func NewOptimizationQueueStore(pool *Pool) *OptimizationQueueStore {
	return &OptimizationQueueStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OptimizationQueueStore = (*OptimizationQueueStore)(nil)

const optimizationJobColumns = `
	job_id, symbol, queued_at, ready_at, elapsed_seconds,
	lookback, exit_type, risk_fraction, take_profit_pct,
	pnl_value, total_trades, win_rate, max_drawdown
`

// Enqueue adds a job. Returns ErrDuplicateKey if job_id exists.
func (s *OptimizationQueueStore) Enqueue(ctx context.Context, j *domain.OptimizationJob) error {
	query := `
		INSERT INTO optimization_queue (` + optimizationJobColumns + `) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13
		)
	`

	_, err := s.pool.Exec(ctx, query,
		j.JobID, j.Symbol, j.QueuedAt, j.ReadyAt, j.ElapsedSeconds,
		j.Params.Lookback, j.Params.ExitType, j.Params.RiskFraction, j.Params.TakeProfitPct,
		j.Summary.PnLValue, j.Summary.TotalTrades, j.Summary.WinRate, j.Summary.MaxDrawdown,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("enqueue optimization job: %w", err)
	}
	return nil
}

// GetByJobID retrieves a job by its ID. Returns ErrNotFound if not exists.
func (s *OptimizationQueueStore) GetByJobID(ctx context.Context, jobID string) (*domain.OptimizationJob, error) {
	query := `SELECT` + optimizationJobColumns + `FROM optimization_queue WHERE job_id = $1`

	row := s.pool.QueryRow(ctx, query, jobID)
	j, err := scanOptimizationJob(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get optimization job by id: %w", err)
	}
	return j, nil
}

// GetDue retrieves jobs with ready_at <= now, ordered by ready_at ASC.
func (s *OptimizationQueueStore) GetDue(ctx context.Context, now int64) ([]*domain.OptimizationJob, error) {
	query := `SELECT` + optimizationJobColumns + `
		FROM optimization_queue
		WHERE ready_at <= $1
		ORDER BY ready_at ASC, job_id ASC
	`

	rows, err := s.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("get due optimization jobs: %w", err)
	}
	defer rows.Close()

	return scanOptimizationJobs(rows)
}

// GetBySymbol retrieves all jobs for a symbol, ordered by queued_at ASC.
func (s *OptimizationQueueStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.OptimizationJob, error) {
	query := `SELECT` + optimizationJobColumns + `
		FROM optimization_queue
		WHERE symbol = $1
		ORDER BY queued_at ASC, job_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get optimization jobs by symbol: %w", err)
	}
	defer rows.Close()

	return scanOptimizationJobs(rows)
}

// scanOptimizationJob scans a single row into an OptimizationJob.
func scanOptimizationJob(row pgx.Row) (*domain.OptimizationJob, error) {
	var j domain.OptimizationJob

	err := row.Scan(
		&j.JobID, &j.Symbol, &j.QueuedAt, &j.ReadyAt, &j.ElapsedSeconds,
		&j.Params.Lookback, &j.Params.ExitType, &j.Params.RiskFraction, &j.Params.TakeProfitPct,
		&j.Summary.PnLValue, &j.Summary.TotalTrades, &j.Summary.WinRate, &j.Summary.MaxDrawdown,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// scanOptimizationJobs scans multiple rows into a slice of OptimizationJob.
func scanOptimizationJobs(rows pgx.Rows) ([]*domain.OptimizationJob, error) {
	var jobs []*domain.OptimizationJob

	for rows.Next() {
		j, err := scanOptimizationJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan optimization job row: %w", err)
		}
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate optimization job rows: %w", err)
	}
	return jobs, nil
}
