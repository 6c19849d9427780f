package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(run_id|symbol|param_id|entry_time|entry_price)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	runID string,
	symbol string,
	paramID string,
	entryTime int64,
	entryPrice float64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%.10f",
		runID,
		symbol,
		paramID,
		entryTime,
		entryPrice,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
