package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(address|action|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(address, action string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", address, action, timestampMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputePositionID computes a deterministic position_id using SHA256.
// Formula: SHA256(address|entry_time_ms)
// Returns hex-encoded hash (64 characters).
func ComputePositionID(address string, entryTimeMs int64) string {
	data := fmt.Sprintf("%s|%d", address, entryTimeMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
