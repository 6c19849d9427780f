package clickhouse

import (
	"context"
	"fmt"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate
// (symbol, interval_min, open_time). MergeTree does not enforce
// uniqueness, so duplicates are checked before the batch is sent.
func (s *BarStore) InsertBulk(ctx context.Context, symbol string, intervalMin int, bars []domain.Bar) error {
	if symbol == "" || intervalMin <= 0 {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[b.OpenTime]; exists {
			return storage.ErrDuplicateKey
		}
		seen[b.OpenTime] = struct{}{}
	}

	for _, b := range bars {
		exists, err := s.exists(ctx, symbol, intervalMin, b.OpenTime)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			symbol, interval_min, open_time, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			symbol, uint16(intervalMin), uint64(b.OpenTime),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all bars for a symbol/interval, ordered by open_time ASC.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol string, intervalMin int) ([]domain.Bar, error) {
	query := `
		SELECT open_time, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval_min = ?
		ORDER BY open_time ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint16(intervalMin))
	if err != nil {
		return nil, fmt.Errorf("query bars by symbol: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByTimeRange retrieves bars within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(ctx context.Context, symbol string, intervalMin int, start, end int64) ([]domain.Bar, error) {
	query := `
		SELECT open_time, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval_min = ? AND open_time >= ? AND open_time <= ?
		ORDER BY open_time ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint16(intervalMin), uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query bars by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// exists checks if a bar with the given key exists.
func (s *BarStore) exists(ctx context.Context, symbol string, intervalMin int, openTime int64) (bool, error) {
	query := `
		SELECT count(*) FROM bars
		WHERE symbol = ? AND interval_min = ? AND open_time = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, uint16(intervalMin), uint64(openTime)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows abstracts driver.Rows for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanBars scans multiple rows into bars.
func scanBars(rows chRows) ([]domain.Bar, error) {
	var bars []domain.Bar

	for rows.Next() {
		var b domain.Bar
		var openTime uint64

		err := rows.Scan(&openTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		b.OpenTime = int64(openTime)
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
