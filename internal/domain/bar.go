package domain

import "errors"

// Bar validation errors.
var (
	ErrInvalidBar = errors.New("invalid bar: non-positive or inconsistent OHLC values")
)

// Bar represents a single OHLCV candle.
// Immutable once constructed; sequences of bars are ordered by OpenTime
// ascending at a fixed interval.
type Bar struct {
	OpenTime int64 // bar open timestamp (ms)
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Validate checks OHLC consistency.
// Bars with non-positive prices or High < Low are malformed input,
// not a business rejection.
func (b Bar) Validate() error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return ErrInvalidBar
	}
	if b.High < b.Low {
		return ErrInvalidBar
	}
	if b.High < b.Open || b.High < b.Close || b.Low > b.Open || b.Low > b.Close {
		return ErrInvalidBar
	}
	return nil
}

// Bearish reports whether the bar closed below its open.
func (b Bar) Bearish() bool {
	return b.Close < b.Open
}
