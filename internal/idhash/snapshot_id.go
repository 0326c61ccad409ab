package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeSnapshotID computes a deterministic snapshot_id for persisted breakdowns.
// Formula: SHA256(batch_id|filter_key|computed_at_unix_ms)
// Returns hex-encoded hash (64 characters).
func ComputeSnapshotID(batchID, filterKey string, computedAt time.Time) string {
	data := fmt.Sprintf("%s|%s|%d", batchID, filterKey, computedAt.UnixMilli())

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
