package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"short-trade-lab/internal/domain"
)

// csv column layout, matching the exported kline dumps:
// open_time,open,high,low,close,volume with a header row.
const csvColumns = 6

// LoadCSV reads bars from a CSV file and returns them as a validated
// series.
func LoadCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bar file: %w", err)
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return New(bars)
}

// ReadCSV parses bars from CSV content. The first row is treated as a
// header when its first field is not numeric.
func ReadCSV(r io.Reader) ([]domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = csvColumns

	var bars []domain.Bar
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		line++

		if line == 1 {
			if _, err := strconv.ParseInt(rec[0], 10, 64); err != nil {
				continue // header row
			}
		}

		bar, err := parseBarRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func parseBarRecord(rec []string) (domain.Bar, error) {
	openTime, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("open_time %q: %w", rec[0], err)
	}

	vals := make([]float64, 5)
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("%s %q: %w", names[i], rec[i+1], err)
		}
		vals[i] = v
	}

	return domain.Bar{
		OpenTime: openTime,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}
