package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic run_id for a backtest sweep.
// Formula: SHA256(symbol|interval|first_bar|last_bar|seed)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	symbol string,
	intervalMin int,
	firstBarTime int64,
	lastBarTime int64,
	seed int64,
) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%d",
		symbol,
		intervalMin,
		firstBarTime,
		lastBarTime,
		seed,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
